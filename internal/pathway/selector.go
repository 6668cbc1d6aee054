// Package pathway selects the time-phased outreach plan for a prospect
// from its temperature classification and composite score.
//
// The selection policy is a fixed table, not a learned model. The day
// offsets and thresholds are behavior contracts: downstream sequences and
// coaching material assume them.
package pathway

import (
	"context"
	"log/slog"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Sequence keys the selector hands to the materializer. The registry
// seeds a sequence definition under each of these names.
const (
	SequenceHotCloser   = "hot_closer"
	SequenceWarmNurture = "warm_nurture"
	SequenceColdNurture = "cold_nurture"
)

// Send-window recommendations attached to plans as metadata. The
// scheduler does not enforce them.
const (
	WindowMorning = "morning"
	WindowLunch   = "lunch"
	WindowEvening = "evening"
)

// Plan is the selected outreach plan before persistence.
type Plan struct {
	SequenceKey   string
	Steps         []database.PathwayStep
	NextAction    string
	NextActionDue time.Time
	SendWindow    string
}

// Select is the pure policy function mapping (temperature, composite
// score) to a plan. now anchors the next-action due time.
func Select(temperature database.Temperature, compositeScore int, now time.Time) Plan {
	switch {
	case temperature == database.TemperatureHot && compositeScore >= 80:
		return Plan{
			SequenceKey: SequenceHotCloser,
			Steps: []database.PathwayStep{
				{Day: 0, Action: "direct pitch"},
				{Day: 1, Action: "follow-up"},
				{Day: 2, Action: "close"},
			},
			NextAction:    "schedule call or meeting",
			NextActionDue: now.Add(2 * time.Hour),
			SendWindow:    WindowMorning,
		}
	case temperature == database.TemperatureWarm && compositeScore >= 60:
		return Plan{
			SequenceKey: SequenceWarmNurture,
			Steps: []database.PathwayStep{
				{Day: 0, Action: "value touch"},
				{Day: 2, Action: "education"},
				{Day: 5, Action: "soft pitch"},
				{Day: 7, Action: "follow-up"},
			},
			NextAction:    "send educational content",
			NextActionDue: nextCalendarDay(now),
			SendWindow:    WindowLunch,
		}
	default:
		return Plan{
			SequenceKey: SequenceColdNurture,
			Steps: []database.PathwayStep{
				{Day: 0, Action: "rapport"},
				{Day: 3, Action: "value"},
				{Day: 7, Action: "story"},
				{Day: 14, Action: "education"},
				{Day: 21, Action: "soft inquiry"},
			},
			NextAction:    "build rapport with value touch",
			NextActionDue: now.Add(72 * time.Hour),
			SendWindow:    WindowEvening,
		}
	}
}

// nextCalendarDay returns the start of the next calendar day in now's
// location.
func nextCalendarDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// Selector applies the policy and persists the resulting pathway.
type Selector struct {
	pathways   database.PathwayDAO
	executions database.ExecutionDAO
	logger     *slog.Logger
	now        func() time.Time
}

// NewSelector creates a Selector.
func NewSelector(pathways database.PathwayDAO, executions database.ExecutionDAO, logger *slog.Logger) *Selector {
	return &Selector{
		pathways:   pathways,
		executions: executions,
		logger:     logger,
		now:        time.Now,
	}
}

// Apply selects a plan for the prospect and replaces its current pathway.
// Replacing a pathway supersedes the prospect's outstanding pending
// executions so a stale plan never keeps firing. When pathway persistence
// fails the selected plan is still returned alongside a
// PATHWAY_PERSIST_FAILED warning.
func (s *Selector) Apply(ctx context.Context, prospectID, userID types.ID, temperature database.Temperature, compositeScore int) (*database.NurturePathway, error) {
	plan := Select(temperature, compositeScore, s.now())

	pathway := &database.NurturePathway{
		ProspectID:     prospectID,
		UserID:         userID,
		SequenceKey:    plan.SequenceKey,
		Temperature:    temperature,
		CompositeScore: compositeScore,
		Steps:          plan.Steps,
		NextAction:     plan.NextAction,
		NextActionDue:  plan.NextActionDue.UTC(),
		SendWindow:     plan.SendWindow,
	}

	if err := s.pathways.Upsert(ctx, pathway); err != nil {
		s.logger.Warn("pathway selected but not persisted",
			"prospect_id", prospectID, "sequence", plan.SequenceKey, "error", err)
		return pathway, types.WrapError(types.PATHWAY_PERSIST_FAILED,
			"pathway selected but not persisted", err)
	}

	superseded, err := s.executions.SupersedePending(ctx, prospectID)
	if err != nil {
		return pathway, err
	}
	if superseded > 0 {
		s.logger.Info("superseded stale pending executions",
			"prospect_id", prospectID, "count", superseded)
	}

	s.logger.Debug("pathway applied",
		"prospect_id", prospectID,
		"sequence", plan.SequenceKey,
		"next_action", plan.NextAction)
	return pathway, nil
}
