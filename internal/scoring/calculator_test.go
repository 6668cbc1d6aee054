package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/types"
)

func newTestCalculator() *Calculator {
	return NewCalculator(nil, "mixed", observability.Discard())
}

func TestCompositeAlwaysInRange(t *testing.T) {
	calc := newTestCalculator()

	bundles := []Signals{
		{}, // empty bundle
		{
			Bio:                  "ready to start, sign me up, how much, start now, extra income opportunity",
			Posts:                "savings investment emergency fund salary business bonus payday",
			Employment:           "full-time permanent government engineer manager",
			ReferralSource:       "upline",
			ReferralQuality:      database.ReferralHot,
			ResponseSpeedSeconds: 1,
			CommentCount:         100,
			LikeCount:            100,
			PersonalityType:      "amiable",
			UserPersonalityType:  "amiable",
		},
		{
			Bio:             "utang debt loan credit card behind on hulugan sangla",
			ReferralQuality: database.ReferralCold,
		},
	}

	for i, signals := range bundles {
		result := calc.Compute(signals)
		s := result.Snapshot

		assert.GreaterOrEqual(t, s.CompositeScore, 0, "bundle %d", i)
		assert.LessOrEqual(t, s.CompositeScore, 100, "bundle %d", i)
		for name, sub := range map[string]int{
			"intent":      s.IntentScore,
			"financial":   s.FinancialScore,
			"engagement":  s.EngagementScore,
			"personality": s.PersonalityScore,
			"vouch":       s.VouchScore,
		} {
			assert.GreaterOrEqual(t, sub, 0, "bundle %d %s", i, name)
			assert.LessOrEqual(t, sub, 100, "bundle %d %s", i, name)
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	calc := newTestCalculator()

	signals := Signals{
		Bio:                  "looking for extra income",
		ReferralSource:       "friend",
		ReferralQuality:      database.ReferralWarm,
		ResponseSpeedSeconds: 120,
		CommentCount:         3,
		LikeCount:            7,
	}

	first := calc.Compute(signals).Snapshot
	second := calc.Compute(signals).Snapshot

	assert.Equal(t, first.CompositeScore, second.CompositeScore)
	assert.Equal(t, first.IntentScore, second.IntentScore)
	assert.Equal(t, first.FinancialScore, second.FinancialScore)
	assert.Equal(t, first.EngagementScore, second.EngagementScore)
	assert.Equal(t, first.PersonalityScore, second.PersonalityScore)
	assert.Equal(t, first.VouchScore, second.VouchScore)
}

func TestVouchScoreScale(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name    string
		source  string
		quality database.ReferralQuality
		want    int
	}{
		{"hot saturates at 100", "upline", database.ReferralHot, 100},
		{"warm", "friend", database.ReferralWarm, 100},
		{"cold", "stranger", database.ReferralCold, 50},
		{"no referral source", "", database.ReferralHot, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := calc.Compute(Signals{ReferralSource: tt.source, ReferralQuality: tt.quality}).Snapshot
			assert.Equal(t, tt.want, s.VouchScore)
		})
	}
}

func TestPersonalityMatchDefaults(t *testing.T) {
	assert.Equal(t, 50, personalityMatch("", ""))
	assert.Equal(t, 50, personalityMatch("driver", "unknown"))
	assert.Equal(t, 50, personalityMatch("unknown", "driver"))
	assert.Equal(t, 85, personalityMatch("amiable", "amiable"))
	assert.Equal(t, 85, personalityMatch("Amiable", " AMIABLE "))
}

func TestResponseSpeedNormalization(t *testing.T) {
	assert.Equal(t, 0.0, normalizeResponseSpeed(0))
	assert.Equal(t, 0.0, normalizeResponseSpeed(-5))
	assert.Equal(t, 0.0, normalizeResponseSpeed(3600))
	assert.Equal(t, 0.0, normalizeResponseSpeed(7200))
	assert.InDelta(t, 98.33, normalizeResponseSpeed(60), 0.01)
	assert.Greater(t, normalizeResponseSpeed(30), normalizeResponseSpeed(300))
}

func TestBreakdownRecordsMatchedKeywords(t *testing.T) {
	calc := newTestCalculator()

	result := calc.Compute(Signals{Bio: "looking for extra income, may utang pa rin"})

	assert.Contains(t, result.Breakdown.PainPoints.Matched, "income")
	assert.Contains(t, result.Breakdown.PainPoints.Matched, "utang")
	assert.Contains(t, result.Breakdown.Opportunity.Matched, "looking for")

	// The breakdown is carried on the snapshot as JSON
	var decoded Breakdown
	require.NoError(t, json.Unmarshal(result.Snapshot.Breakdown, &decoded))
	assert.Equal(t, result.Breakdown.PainPoints.Count, decoded.PainPoints.Count)
}

// failingSnapshotDAO simulates a persistence outage.
type failingSnapshotDAO struct{}

func (failingSnapshotDAO) Create(context.Context, *database.ScoreSnapshot) error {
	return errors.New("disk full")
}
func (failingSnapshotDAO) Latest(context.Context, types.ID) (*database.ScoreSnapshot, error) {
	return nil, errors.New("not implemented")
}
func (failingSnapshotDAO) History(context.Context, types.ID, int) ([]*database.ScoreSnapshot, error) {
	return nil, errors.New("not implemented")
}

func TestScoreSurvivesPersistenceFailure(t *testing.T) {
	calc := NewCalculator(failingSnapshotDAO{}, "mixed", observability.Discard())

	snapshot, err := calc.Score(context.Background(), Signals{Bio: "looking for extra income"})

	// The computed value is returned even though persistence failed,
	// and the failure is surfaced as a warning code.
	require.NotNil(t, snapshot)
	assert.True(t, types.HasCode(err, types.SNAPSHOT_PERSIST_FAILED))
	assert.Greater(t, snapshot.CompositeScore, 0)
}

func TestEnglishOnlyLocaleSkipsFilipinoKeywords(t *testing.T) {
	calc := NewCalculator(nil, "en", observability.Discard())

	result := calc.Compute(Signals{Bio: "may utang pa rin ako"})
	assert.NotContains(t, result.Breakdown.PainPoints.Matched, "utang")

	mixed := newTestCalculator().Compute(Signals{Bio: "may utang pa rin ako"})
	assert.Contains(t, mixed.Breakdown.PainPoints.Matched, "utang")
}
