package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Materializer expands a sequence definition into pending step executions
// for one prospect. Materialization copies each step's condition,
// template key, and channel onto the execution row so later definition
// edits never change work already scheduled.
type Materializer struct {
	sequences  database.SequenceDAO
	executions database.ExecutionDAO
	prospects  database.ProspectDAO
	events     database.EngagementDAO
	logger     *slog.Logger
	now        func() time.Time
}

// NewMaterializer creates a Materializer.
func NewMaterializer(
	sequences database.SequenceDAO,
	executions database.ExecutionDAO,
	prospects database.ProspectDAO,
	events database.EngagementDAO,
	logger *slog.Logger,
) *Materializer {
	return &Materializer{
		sequences:  sequences,
		executions: executions,
		prospects:  prospects,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// Materialize creates one pending execution per step of the sequence,
// each scheduled at now + step delay. The sequence must be active.
// Duplicate materialization is rejected atomically with
// EXECUTION_ALREADY_EXISTS and no partial writes.
func (m *Materializer) Materialize(ctx context.Context, prospectID, sequenceID types.ID) ([]*database.StepExecution, error) {
	def, err := m.sequences.GetByID(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	return m.materialize(ctx, prospectID, def)
}

// MaterializeByName resolves the prospect's owner and materializes the
// active version of the named sequence.
func (m *Materializer) MaterializeByName(ctx context.Context, prospectID types.ID, name string) ([]*database.StepExecution, error) {
	prospect, err := m.prospects.GetByID(ctx, prospectID)
	if err != nil {
		return nil, err
	}

	def, err := m.sequences.GetActiveByName(ctx, prospect.UserID, name)
	if err != nil {
		return nil, err
	}
	return m.materialize(ctx, prospectID, def)
}

func (m *Materializer) materialize(ctx context.Context, prospectID types.ID, def *database.SequenceDefinition) ([]*database.StepExecution, error) {
	if !def.Active {
		return nil, types.NewError(types.SEQUENCE_NOT_FOUND,
			fmt.Sprintf("sequence %s version %d is not active", def.Name, def.Version))
	}
	if len(def.Steps) == 0 {
		return nil, types.NewError(types.SEQUENCE_INVALID, "sequence "+def.Name+" has no steps")
	}

	now := m.now().UTC()
	executions := make([]*database.StepExecution, 0, len(def.Steps))
	for _, step := range def.Steps {
		executions = append(executions, &database.StepExecution{
			ProspectID:     prospectID,
			SequenceID:     def.ID,
			StepOrder:      step.StepOrder,
			DeliveryStatus: database.DeliveryPending,
			ConditionType:  step.ConditionType,
			TemplateKey:    step.TemplateKey,
			Channel:        step.ChannelOverride,
			ScheduledFor:   now.Add(step.Delay),
		})
	}

	if err := m.executions.CreateBatch(ctx, executions); err != nil {
		return nil, err
	}

	if err := m.seedStartedEvent(ctx, prospectID); err != nil {
		// the executions are durable; a missing start marker only affects
		// reporting, so log and move on
		m.logger.Warn("failed to seed sequence_started event",
			"prospect_id", prospectID, "error", err)
	}

	m.logger.Info("sequence materialized",
		"prospect_id", prospectID,
		"sequence", def.Name,
		"version", def.Version,
		"steps", len(executions))
	return executions, nil
}

// seedStartedEvent marks the first sequence start for a prospect. Later
// materializations find existing events and leave the log alone.
func (m *Materializer) seedStartedEvent(ctx context.Context, prospectID types.ID) error {
	has, err := m.events.HasEvents(ctx, prospectID)
	if err != nil || has {
		return err
	}
	return m.events.Append(ctx, &database.EngagementEvent{
		ProspectID: prospectID,
		EventType:  database.EngagementSequenceStarted,
		Source:     "materializer",
	})
}

