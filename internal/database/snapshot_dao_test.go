package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshotAppendAndLatest(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestProspect(t, db)
	dao := NewSnapshotDAO(db)

	first := &ScoreSnapshot{
		ProspectID:     p.ID,
		UserID:         p.UserID,
		IntentScore:    40,
		CompositeScore: 35,
		Breakdown:      json.RawMessage(`{"pain_points":["income"]}`),
	}
	if err := dao.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := &ScoreSnapshot{
		ProspectID:     p.ID,
		UserID:         p.UserID,
		IntentScore:    70,
		CompositeScore: 62,
	}
	if err := dao.Create(ctx, second); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	latest, err := dao.Latest(ctx, p.ID)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.CompositeScore != 62 {
		t.Errorf("expected latest composite 62, got %d", latest.CompositeScore)
	}

	history, err := dao.History(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	// Newest first
	if history[0].CompositeScore != 62 || history[1].CompositeScore != 35 {
		t.Errorf("history not ordered newest first: %d, %d",
			history[0].CompositeScore, history[1].CompositeScore)
	}
	// Breakdown survives the round trip
	if string(history[1].Breakdown) != `{"pain_points":["income"]}` {
		t.Errorf("unexpected breakdown: %s", history[1].Breakdown)
	}
}

func TestPathwayUpsertReplaces(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestProspect(t, db)
	dao := NewPathwayDAO(db)

	first := &NurturePathway{
		ProspectID:     p.ID,
		UserID:         p.UserID,
		SequenceKey:    "cold_nurture",
		Temperature:    TemperatureCold,
		CompositeScore: 30,
		Steps:          []PathwayStep{{Day: 0, Action: "rapport"}, {Day: 3, Action: "value"}},
		NextAction:     "build rapport with value touch",
		NextActionDue:  time.Now().UTC().Add(72 * time.Hour),
	}
	if err := dao.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	replacement := &NurturePathway{
		ProspectID:     p.ID,
		UserID:         p.UserID,
		SequenceKey:    "warm_nurture",
		Temperature:    TemperatureWarm,
		CompositeScore: 65,
		Steps:          []PathwayStep{{Day: 0, Action: "value touch"}},
		NextAction:     "send educational content",
		NextActionDue:  time.Now().UTC().Add(24 * time.Hour),
	}
	if err := dao.Upsert(ctx, replacement); err != nil {
		t.Fatalf("replacement Upsert failed: %v", err)
	}

	current, err := dao.GetByProspect(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByProspect failed: %v", err)
	}
	if current.SequenceKey != "warm_nurture" {
		t.Errorf("expected replaced pathway, got %s", current.SequenceKey)
	}
	if len(current.Steps) != 1 {
		t.Errorf("expected replaced steps, got %d", len(current.Steps))
	}
	// The original row was replaced in place, not duplicated
	if current.ID != first.ID {
		t.Errorf("expected pathway row to be updated in place")
	}
}

func TestSequenceRoundTripAndVersions(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	ctx := context.Background()
	p := createTestProspect(t, db)
	dao := NewSequenceDAO(db)

	v1 := createTestSequence(t, db, p.UserID, "warm_nurture", 4)

	// A newer active version wins GetActiveByName
	v2 := &SequenceDefinition{
		UserID:  p.UserID,
		Name:    "warm_nurture",
		Version: 2,
		Active:  true,
		Steps: []SequenceStep{
			{StepOrder: 1, Delay: 0, ConditionType: ConditionAlways, TemplateKey: "value_touch"},
			{StepOrder: 2, Delay: 48 * time.Hour, ConditionType: ConditionNoReply, TemplateKey: "education"},
		},
	}
	if err := dao.Create(ctx, v2); err != nil {
		t.Fatalf("Create v2 failed: %v", err)
	}

	active, err := dao.GetActiveByName(ctx, p.UserID, "warm_nurture")
	if err != nil {
		t.Fatalf("GetActiveByName failed: %v", err)
	}
	if active.Version != 2 {
		t.Errorf("expected version 2 active, got %d", active.Version)
	}
	if len(active.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(active.Steps))
	}
	if active.Steps[1].Delay != 48*time.Hour {
		t.Errorf("expected 48h delay, got %v", active.Steps[1].Delay)
	}

	// Deactivating v2 falls back to v1
	if err := dao.Deactivate(ctx, v2.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	active, err = dao.GetActiveByName(ctx, p.UserID, "warm_nurture")
	if err != nil {
		t.Fatalf("GetActiveByName after deactivate failed: %v", err)
	}
	if active.ID != v1.ID {
		t.Errorf("expected fallback to v1")
	}
}

func TestSequenceCreateRejectsUnknownCondition(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	def := &SequenceDefinition{
		UserID: "u",
		Name:   "bad",
		Active: true,
		Steps:  []SequenceStep{{StepOrder: 1, TemplateKey: "x", ConditionType: "no_such"}},
	}
	err := NewSequenceDAO(db).Create(context.Background(), def)
	if err == nil {
		t.Fatal("expected error for unknown condition type")
	}
}
