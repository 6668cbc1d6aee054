package scoring

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Linear count-based scales for the frequency-style sub-terms.
const (
	pointsPerPainPoint   = 40
	pointsPerOpportunity = 40
	pointsPerDecision    = 50
	pointsPerIncome      = 50
	pointsPerStableWork  = 50
	pointsPerSavings     = 50
	pointsPerDebt        = 50
	pointsPerCuriosity   = 50
)

// Vouch score: referral quality maps to a 0-15 base (hot=15, warm=10,
// cold=5, none=0) scaled by 10 and clamped to 100. The single x10 scale is
// used everywhere; hot saturates at 100.
const vouchMultiplier = 10

var vouchBase = map[database.ReferralQuality]int{
	database.ReferralHot:  15,
	database.ReferralWarm: 10,
	database.ReferralCold: 5,
}

// Breakdown explains every sub-score of a snapshot for auditability.
// It is persisted as the snapshot's breakdown JSON.
type Breakdown struct {
	PainPoints       KeywordMatch `json:"pain_points"`
	Opportunity      KeywordMatch `json:"opportunity_language"`
	Decision         KeywordMatch `json:"decision_signals"`
	Income           KeywordMatch `json:"income_signals"`
	StableWork       KeywordMatch `json:"employment_stability"`
	Savings          KeywordMatch `json:"savings_signals"`
	DebtPressure     KeywordMatch `json:"debt_pressure"`
	Curiosity        KeywordMatch `json:"curiosity_markers"`
	ResponseSpeed    float64      `json:"response_speed_score"`
	CommentActivity  float64      `json:"comment_activity_score"`
	LikeActivity     float64      `json:"like_activity_score"`
	UserPersonality  string       `json:"user_personality,omitempty"`
	Personality      string       `json:"prospect_personality,omitempty"`
	ReferralQuality  string       `json:"referral_quality,omitempty"`
	ResponseSeconds  int          `json:"response_speed_seconds"`
	CommentCount     int          `json:"comment_count"`
	LikeCount        int          `json:"like_count"`
}

// Result pairs a computed snapshot with its breakdown.
type Result struct {
	Snapshot  *database.ScoreSnapshot
	Breakdown Breakdown
}

// Calculator turns a prospect signal bundle into a score snapshot.
// Compute is deterministic and pure with respect to its inputs; Score
// additionally persists the snapshot.
type Calculator struct {
	snapshots database.SnapshotDAO
	extractor SignalExtractor
	dicts     Dictionaries
	logger    *slog.Logger
	now       func() time.Time
}

// NewCalculator creates a Calculator. snapshots may be nil for pure
// computation without persistence.
func NewCalculator(snapshots database.SnapshotDAO, locale string, logger *slog.Logger) *Calculator {
	return &Calculator{
		snapshots: snapshots,
		extractor: NewSubstringExtractor(),
		dicts:     DictionariesForLocale(locale),
		logger:    logger,
		now:       time.Now,
	}
}

// WithExtractor swaps the keyword-matching strategy.
func (c *Calculator) WithExtractor(extractor SignalExtractor) *Calculator {
	c.extractor = extractor
	return c
}

// Compute scores a signal bundle. The composite and every sub-score are
// integers clamped to [0,100].
func (c *Calculator) Compute(signals Signals) Result {
	text := signals.FreeText()

	breakdown := Breakdown{
		PainPoints:      matchScore(c.extractor, text, c.dicts.PainPoints, pointsPerPainPoint),
		Opportunity:     matchScore(c.extractor, text, c.dicts.Opportunity, pointsPerOpportunity),
		Decision:        matchScore(c.extractor, text, c.dicts.Decision, pointsPerDecision),
		Income:          matchScore(c.extractor, text, c.dicts.Income, pointsPerIncome),
		Savings:         matchScore(c.extractor, text, c.dicts.Savings, pointsPerSavings),
		DebtPressure:    matchScore(c.extractor, text, c.dicts.DebtPressure, pointsPerDebt),
		Curiosity:       matchScore(c.extractor, text, c.dicts.Curiosity, pointsPerCuriosity),
		UserPersonality: signals.UserPersonalityType,
		Personality:     signals.PersonalityType,
		ReferralQuality: string(signals.ReferralQuality),
		ResponseSeconds: signals.ResponseSpeedSeconds,
		CommentCount:    signals.CommentCount,
		LikeCount:       signals.LikeCount,
	}

	// Employment stability reads the employment descriptor, not the
	// social text.
	breakdown.StableWork = matchScore(c.extractor,
		strings.ToLower(signals.Employment), c.dicts.StableWork, pointsPerStableWork)

	intent := 0.5*breakdown.PainPoints.Score +
		0.3*breakdown.Opportunity.Score +
		0.2*breakdown.Decision.Score

	financial := clamp(0.4*breakdown.Income.Score +
		0.3*breakdown.StableWork.Score +
		0.2*breakdown.Savings.Score -
		0.1*breakdown.DebtPressure.Score)

	breakdown.ResponseSpeed = normalizeResponseSpeed(signals.ResponseSpeedSeconds)
	breakdown.CommentActivity = clamp(float64(signals.CommentCount) * 20)
	breakdown.LikeActivity = clamp(float64(signals.LikeCount) * 10)

	engagement := (breakdown.ResponseSpeed +
		breakdown.CommentActivity +
		breakdown.LikeActivity +
		breakdown.Curiosity.Score) / 4

	personality := float64(personalityMatch(signals.UserPersonalityType, signals.PersonalityType))

	vouch := 0.0
	if signals.ReferralSource != "" {
		vouch = clamp(float64(vouchBase[signals.ReferralQuality] * vouchMultiplier))
	}

	composite := clamp(math.Round(
		0.40*clamp(intent) +
			0.25*financial +
			0.15*clamp(engagement) +
			0.10*personality +
			0.10*vouch))

	snapshot := &database.ScoreSnapshot{
		ProspectID:       signals.ProspectID,
		UserID:           signals.UserID,
		IntentScore:      int(math.Round(clamp(intent))),
		FinancialScore:   int(math.Round(financial)),
		EngagementScore:  int(math.Round(clamp(engagement))),
		PersonalityScore: int(personality),
		VouchScore:       int(vouch),
		CompositeScore:   int(composite),
		CreatedAt:        c.now().UTC(),
	}

	if data, err := json.Marshal(breakdown); err == nil {
		snapshot.Breakdown = data
	}

	return Result{Snapshot: snapshot, Breakdown: breakdown}
}

// Score computes and persists a snapshot. When persistence fails the
// computed snapshot is still returned alongside a SNAPSHOT_PERSIST_FAILED
// error so callers can use the value and surface the warning.
func (c *Calculator) Score(ctx context.Context, signals Signals) (*database.ScoreSnapshot, error) {
	result := c.Compute(signals)
	snapshot := result.Snapshot

	if c.snapshots == nil {
		return snapshot, nil
	}

	if err := c.snapshots.Create(ctx, snapshot); err != nil {
		c.logger.Warn("score computed but snapshot not persisted",
			"prospect_id", signals.ProspectID,
			"composite", snapshot.CompositeScore,
			"error", err)
		return snapshot, types.WrapError(types.SNAPSHOT_PERSIST_FAILED,
			"score computed but snapshot not persisted", err)
	}

	c.logger.Debug("score snapshot persisted",
		"prospect_id", signals.ProspectID,
		"composite", snapshot.CompositeScore)
	return snapshot, nil
}

// normalizeResponseSpeed maps response latency to [0,100]: instant replies
// score near 100, anything slower than an hour scores 0. Zero or negative
// latency means the metric is unknown and scores 0.
func normalizeResponseSpeed(seconds int) float64 {
	if seconds <= 0 {
		return 0
	}
	const ceiling = 3600.0
	s := float64(seconds)
	if s >= ceiling {
		return 0
	}
	return clamp(100 * (1 - s/ceiling))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
