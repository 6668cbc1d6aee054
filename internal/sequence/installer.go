package sequence

import (
	"context"
	"log/slog"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/pathway"
	"github.com/leadforge/leadforge/internal/types"
)

const day = 24 * time.Hour

// builtinSequences are the stock definitions the pathway selector refers
// to by name. Day offsets line up with the pathway step plans.
var builtinSequences = []*database.SequenceDefinition{
	{
		Name: pathway.SequenceHotCloser,
		Steps: []database.SequenceStep{
			{StepOrder: 1, Delay: 0, ConditionType: database.ConditionAlways, TemplateKey: "hot_pitch"},
			{StepOrder: 2, Delay: 1 * day, ConditionType: database.ConditionNoReply, TemplateKey: "hot_followup"},
			{StepOrder: 3, Delay: 2 * day, ConditionType: database.ConditionNoMeeting, TemplateKey: "hot_close"},
		},
	},
	{
		Name: pathway.SequenceWarmNurture,
		Steps: []database.SequenceStep{
			{StepOrder: 1, Delay: 0, ConditionType: database.ConditionAlways, TemplateKey: "warm_value"},
			{StepOrder: 2, Delay: 2 * day, ConditionType: database.ConditionNoReply, TemplateKey: "warm_education"},
			{StepOrder: 3, Delay: 5 * day, ConditionType: database.ConditionNoReply, TemplateKey: "warm_soft_pitch"},
			{StepOrder: 4, Delay: 7 * day, ConditionType: database.ConditionNoMeeting, TemplateKey: "warm_followup"},
		},
	},
	{
		Name: pathway.SequenceColdNurture,
		Steps: []database.SequenceStep{
			{StepOrder: 1, Delay: 0, ConditionType: database.ConditionAlways, TemplateKey: "cold_rapport"},
			{StepOrder: 2, Delay: 3 * day, ConditionType: database.ConditionNoReply, TemplateKey: "cold_value"},
			{StepOrder: 3, Delay: 7 * day, ConditionType: database.ConditionNoReply, TemplateKey: "cold_story"},
			{StepOrder: 4, Delay: 14 * day, ConditionType: database.ConditionNoReply, TemplateKey: "cold_education"},
			{StepOrder: 5, Delay: 21 * day, ConditionType: database.ConditionNoSale, TemplateKey: "cold_soft_inquiry"},
		},
	},
}

// builtinTemplates back the stock sequences. Bodies are opaque to the
// engine apart from {{placeholder}} substitution.
var builtinTemplates = []*database.MessageTemplate{
	{TemplateKey: "hot_pitch", Body: "Hi {{first_name}}! Since you came recommended, I'd love to show you how {{product_name}} can work for you. Do you have 15 minutes this week? {{booking_link}}"},
	{TemplateKey: "hot_followup", Body: "Hi {{first_name}}, just following up on my last message. Happy to answer any questions about {{product_name}}."},
	{TemplateKey: "hot_close", Body: "Hi {{first_name}}, I don't want you to miss out. Can we lock in a quick call? {{booking_link}}"},
	{TemplateKey: "warm_value", Body: "Hi {{first_name}}! I came across something I think you'd find genuinely useful. No strings attached, just sharing."},
	{TemplateKey: "warm_education", Body: "Hi {{first_name}}, here's a short read on how people like you are building extra income with {{product_name}}."},
	{TemplateKey: "warm_soft_pitch", Body: "Hi {{first_name}}, if the timing ever feels right, I'd be glad to walk you through {{product_name}}. No pressure at all."},
	{TemplateKey: "warm_followup", Body: "Hi {{first_name}}, circling back one last time. Would a quick chat help? {{booking_link}}"},
	{TemplateKey: "cold_rapport", Body: "Hi {{first_name}}! Saw your recent post and thought I'd say hello. How have you been?"},
	{TemplateKey: "cold_value", Body: "Hi {{first_name}}, sharing a tip that's helped a lot of people I talk to. Hope it's useful!"},
	{TemplateKey: "cold_story", Body: "Hi {{first_name}}, quick story: someone in a similar spot started with {{product_name}} last year and never looked back."},
	{TemplateKey: "cold_education", Body: "Hi {{first_name}}, here's a simple breakdown of how {{product_name}} works, in case you're curious."},
	{TemplateKey: "cold_soft_inquiry", Body: "Hi {{first_name}}, no pressure, but if you'd ever like to hear more I'm here. {{agent_name}}"},
}

// Installer seeds the built-in sequences and templates for a user.
type Installer struct {
	registry *Registry
	logger   *slog.Logger
}

// NewInstaller creates an Installer.
func NewInstaller(registry *Registry, logger *slog.Logger) *Installer {
	return &Installer{registry: registry, logger: logger}
}

// Install seeds any built-in sequence or template the user does not
// already have. Existing definitions are left alone, so reruns are safe
// and user edits survive.
func (i *Installer) Install(ctx context.Context, userID types.ID) error {
	for _, tpl := range builtinTemplates {
		if _, err := i.registry.templates.GetByKey(ctx, userID, tpl.TemplateKey); err == nil {
			continue
		} else if !types.HasCode(err, types.TEMPLATE_NOT_FOUND) {
			return err
		}

		seed := &database.MessageTemplate{
			UserID:      userID,
			TemplateKey: tpl.TemplateKey,
			Channel:     tpl.Channel,
			Body:        tpl.Body,
			Active:      true,
		}
		if err := i.registry.templates.Upsert(ctx, seed); err != nil {
			return err
		}
	}

	for _, def := range builtinSequences {
		if _, err := i.registry.Resolve(ctx, userID, def.Name); err == nil {
			continue
		} else if !types.HasCode(err, types.SEQUENCE_NOT_FOUND) {
			return err
		}

		seed := &database.SequenceDefinition{
			Name:  def.Name,
			Steps: append([]database.SequenceStep(nil), def.Steps...),
		}
		if _, err := i.registry.Register(ctx, userID, seed); err != nil {
			return err
		}
	}

	i.logger.Info("built-in sequences installed", "user_id", userID)
	return nil
}
