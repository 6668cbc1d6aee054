package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leadforge/leadforge/internal/channel"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/engagement"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/pathway"
	"github.com/leadforge/leadforge/internal/scheduler"
	"github.com/leadforge/leadforge/internal/scoring"
	"github.com/leadforge/leadforge/internal/sequence"
	"github.com/leadforge/leadforge/internal/types"
)

// app bundles the wired components a command needs. Commands open it,
// do their work, and Close it.
type app struct {
	logger *slog.Logger
	db     *database.DB
	userID types.ID

	// userPersonality is the owner's configured social style, fed into
	// the personality-compatibility component of every score.
	userPersonality string

	prospects  database.ProspectDAO
	snapshots  database.SnapshotDAO
	pathways   database.PathwayDAO
	executions database.ExecutionDAO
	templates  database.TemplateDAO
	outbox     database.OutboxDAO

	registry     *sequence.Registry
	tracker      *engagement.Tracker
	calculator   *scoring.Calculator
	selector     *pathway.Selector
	materializer *scheduler.Materializer
	processor    *scheduler.Processor
}

// openApp opens the database and wires the full component graph from the
// loaded configuration.
func openApp(ctx context.Context) (*app, error) {
	cfg := appConfig

	logger := observability.NewLogger(os.Stderr, observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := database.OpenWithConfig(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxConnections,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	userID, err := localUserID(cfg.Core.HomeDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		logger:          logger,
		db:              db,
		userID:          userID,
		userPersonality: cfg.Scoring.UserPersonality,
		prospects:       database.NewProspectDAO(db),
		snapshots:       database.NewSnapshotDAO(db),
		pathways:        database.NewPathwayDAO(db),
		executions:      database.NewExecutionDAO(db),
		templates:       database.NewTemplateDAO(db),
		outbox:          database.NewOutboxDAO(db),
	}

	events := database.NewEngagementDAO(db)
	sequences := database.NewSequenceDAO(db)

	a.registry = sequence.NewRegistry(sequences, a.templates, logger)
	a.tracker = engagement.NewTracker(events, logger)
	a.calculator = scoring.NewCalculator(a.snapshots, cfg.Scoring.Locale, logger)
	a.selector = pathway.NewSelector(a.pathways, a.executions, logger)
	a.materializer = scheduler.NewMaterializer(sequences, a.executions, a.prospects, events, logger)

	sender := channel.NewOutboxSender(a.outbox, cfg.Dispatch, logger)
	a.processor = scheduler.NewProcessor(a.executions, a.prospects, a.templates,
		a.tracker, sender, cfg.Processor, cfg.Dispatch, logger)

	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// localUserID returns the stable owner identity for this installation,
// creating it on first use. All prospects and sequences in a local store
// belong to this user.
func localUserID(homeDir string) (types.ID, error) {
	path := filepath.Join(homeDir, "user_id")

	data, err := os.ReadFile(path)
	if err == nil {
		id, parseErr := types.ParseID(strings.TrimSpace(string(data)))
		if parseErr != nil {
			return "", fmt.Errorf("corrupt user identity file %s: %w", path, parseErr)
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0755); err != nil {
		return "", err
	}
	id := types.NewID()
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0600); err != nil {
		return "", err
	}
	return id, nil
}

// persistWarning reports whether err only records a failed write of a
// result that was still computed. Commands print these as warnings and
// report the result instead of aborting.
func persistWarning(err error) bool {
	return types.HasCode(err, types.SNAPSHOT_PERSIST_FAILED) ||
		types.HasCode(err, types.PATHWAY_PERSIST_FAILED)
}

// parseProspectID validates a prospect ID argument.
func parseProspectID(arg string) (types.ID, error) {
	id, err := types.ParseID(arg)
	if err != nil {
		return "", fmt.Errorf("invalid prospect ID %q: %w", arg, err)
	}
	return id, nil
}
