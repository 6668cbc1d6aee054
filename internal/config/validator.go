package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigValidator validates configuration values.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

// validatorImpl implements ConfigValidator using go-playground/validator.
type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a new ConfigValidator instance.
func NewValidator() ConfigValidator {
	return &validatorImpl{
		validate: validator.New(),
	}
}

var validLogLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
var validLogFormats = map[string]bool{"": true, "text": true, "json": true}
var validLocales = map[string]bool{"": true, "en": true, "fil": true, "mixed": true}
var validPersonalities = map[string]bool{"": true, "driver": true, "analytical": true, "amiable": true, "expressive": true}

// Validate validates the configuration and returns detailed error messages.
func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	// Struct tag validation first
	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validation error: %w", err)
		}

		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf("%s failed %q validation (got: %v)", e.Namespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	// Enumerated fields
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("configuration validation failed:\n  - logging.level must be one of debug/info/warn/error (got: %q)", cfg.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("configuration validation failed:\n  - logging.format must be text or json (got: %q)", cfg.Logging.Format)
	}
	if !validLocales[strings.ToLower(cfg.Scoring.Locale)] {
		return fmt.Errorf("configuration validation failed:\n  - scoring.locale must be en, fil, or mixed (got: %q)", cfg.Scoring.Locale)
	}
	if !validPersonalities[strings.ToLower(cfg.Scoring.UserPersonality)] {
		return fmt.Errorf("configuration validation failed:\n  - scoring.user_personality must be driver, analytical, amiable, or expressive (got: %q)", cfg.Scoring.UserPersonality)
	}

	// Dispatch sanity
	if cfg.Dispatch.RatePerSecond < 0 {
		return fmt.Errorf("configuration validation failed:\n  - dispatch.rate_per_second must not be negative (got: %v)", cfg.Dispatch.RatePerSecond)
	}
	if cfg.Dispatch.ChannelDisabled(cfg.Dispatch.DefaultChannel) {
		return fmt.Errorf("configuration validation failed:\n  - dispatch.default_channel %q is listed in disabled_channels", cfg.Dispatch.DefaultChannel)
	}

	return nil
}
