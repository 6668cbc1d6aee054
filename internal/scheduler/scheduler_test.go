package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge/internal/channel"
	"github.com/leadforge/leadforge/internal/config"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/engagement"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/pathway"
	"github.com/leadforge/leadforge/internal/sequence"
	"github.com/leadforge/leadforge/internal/types"
)

type testEnv struct {
	db           *database.DB
	prospects    database.ProspectDAO
	executions   database.ExecutionDAO
	templates    database.TemplateDAO
	outbox       database.OutboxDAO
	registry     *sequence.Registry
	tracker      *engagement.Tracker
	materializer *Materializer
	processor    *Processor
	userID       types.ID
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "scheduler_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))

	logger := observability.Discard()
	prospects := database.NewProspectDAO(db)
	sequences := database.NewSequenceDAO(db)
	executions := database.NewExecutionDAO(db)
	templates := database.NewTemplateDAO(db)
	events := database.NewEngagementDAO(db)
	outbox := database.NewOutboxDAO(db)

	registry := sequence.NewRegistry(sequences, templates, logger)
	userID := types.NewID()
	require.NoError(t, sequence.NewInstaller(registry, logger).Install(context.Background(), userID))

	tracker := engagement.NewTracker(events, logger)
	dispatch := config.DispatchConfig{DefaultChannel: channel.ChannelMessenger}
	sender := channel.NewOutboxSender(outbox, dispatch, logger)

	return &testEnv{
		db:           db,
		prospects:    prospects,
		executions:   executions,
		templates:    templates,
		outbox:       outbox,
		registry:     registry,
		tracker:      tracker,
		materializer: NewMaterializer(sequences, executions, prospects, events, logger),
		processor: NewProcessor(executions, prospects, templates, tracker, sender,
			config.ProcessorConfig{BatchSize: 10, Workers: 2, SendTimeout: 5 * time.Second},
			dispatch, logger),
		userID: userID,
	}
}

func (env *testEnv) createProspect(t *testing.T, p *database.Prospect) *database.Prospect {
	t.Helper()
	p.UserID = env.userID
	require.NoError(t, env.prospects.Create(context.Background(), p))
	return p
}

// forceDue backdates every pending execution so the processor picks it up.
func (env *testEnv) forceDue(t *testing.T, prospectID types.ID) {
	t.Helper()
	_, err := env.db.ExecContext(context.Background(), `
		UPDATE step_executions
		SET scheduled_for = ?
		WHERE prospect_id = ? AND delivery_status = 'pending'
	`, time.Now().UTC().Add(-time.Minute), prospectID)
	require.NoError(t, err)
}

func TestEvaluateCondition(t *testing.T) {
	replied := engagement.Status{Replied: true}
	booked := engagement.Status{MeetingBooked: true}
	closed := engagement.Status{DealClosed: true}
	opened := engagement.Status{MessageOpened: true}

	cases := []struct {
		name      string
		condition database.ConditionType
		status    engagement.Status
		send      bool
	}{
		{"always sends", database.ConditionAlways, replied, true},
		{"no_reply sends when silent", database.ConditionNoReply, engagement.Status{}, true},
		{"no_reply blocked by reply", database.ConditionNoReply, replied, false},
		{"no_meeting blocked by meeting", database.ConditionNoMeeting, booked, false},
		{"no_sale blocked by close", database.ConditionNoSale, closed, false},
		{"no_open blocked by open", database.ConditionNoOpen, opened, false},
		{"no_open sends when unopened", database.ConditionNoOpen, replied, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			send, reason, err := EvaluateCondition(tc.condition, tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.send, send)
			if !tc.send {
				assert.NotEmpty(t, reason)
			}
		})
	}

	_, _, err := EvaluateCondition("lunar_phase", engagement.Status{})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.CONDITION_EVAL_FAILED))
}

func TestMaterializeCreatesPendingSteps(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{FirstName: "Lea", MessengerHandle: "lea.v"})

	before := time.Now().UTC()
	executions, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceWarmNurture)
	require.NoError(t, err)
	require.Len(t, executions, 4)

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	require.Len(t, stored, 4)

	offsets := []time.Duration{0, 2 * 24 * time.Hour, 5 * 24 * time.Hour, 7 * 24 * time.Hour}
	for i, e := range stored {
		assert.Equal(t, database.DeliveryPending, e.DeliveryStatus)
		assert.Equal(t, i+1, e.StepOrder)
		assert.NotEmpty(t, e.TemplateKey)
		assert.WithinDuration(t, before.Add(offsets[i]), e.ScheduledFor, 5*time.Second)
	}
	assert.Equal(t, database.ConditionAlways, stored[0].ConditionType)
	assert.Equal(t, database.ConditionNoReply, stored[1].ConditionType)

	status, err := env.tracker.StatusFor(ctx, prospect.ID)
	require.NoError(t, err)
	assert.True(t, status.SequenceStarted)
	assert.Equal(t, 1, status.EventCount)
}

func TestMaterializeDuplicateRejectedAtomically(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{FirstName: "Ben"})

	_, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceHotCloser)
	require.NoError(t, err)

	_, err = env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceHotCloser)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.EXECUTION_ALREADY_EXISTS))

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	status, err := env.tracker.StatusFor(ctx, prospect.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.EventCount)
}

func TestMaterializeUnknownSequence(t *testing.T) {
	env := setupEnv(t)
	prospect := env.createProspect(t, &database.Prospect{FirstName: "Ana"})

	_, err := env.materializer.MaterializeByName(context.Background(), prospect.ID, "does_not_exist")
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.SEQUENCE_NOT_FOUND))

	stored, err := env.executions.ListByProspect(context.Background(), prospect.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProcessDueSendsFirstStep(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{
		FirstName:       "Maria",
		MessengerHandle: "maria.cruz",
	})

	_, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceHotCloser)
	require.NoError(t, err)

	result, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Due)
	assert.Equal(t, 1, result.Claimed)
	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	assert.Equal(t, database.DeliverySent, stored[0].DeliveryStatus)
	assert.Contains(t, stored[0].MessageContent, "Maria")
	assert.NotContains(t, stored[0].MessageContent, "{{first_name}}")
	require.NotNil(t, stored[0].SentAt)
	assert.Equal(t, database.DeliveryPending, stored[1].DeliveryStatus)
	assert.Equal(t, database.DeliveryPending, stored[2].DeliveryStatus)

	deliveries, err := env.outbox.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, channel.ChannelMessenger, deliveries[0].Channel)
	assert.Equal(t, "maria.cruz", deliveries[0].Recipient)
}

func TestProcessDueSkipsWhenReplyArrived(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{
		FirstName:       "Jon",
		MessengerHandle: "jon.d",
	})

	_, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceWarmNurture)
	require.NoError(t, err)

	// step 1 goes out
	_, err = env.processor.ProcessDue(ctx)
	require.NoError(t, err)

	require.NoError(t, env.tracker.Record(ctx, prospect.ID, database.EngagementReplyReceived, "webhook"))
	env.forceDue(t, prospect.ID)

	result, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Due)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 1, result.Sent)

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)

	// steps 2 and 3 are no_reply gated, step 4 is no_meeting gated
	// and a reply alone does not block it
	assert.Equal(t, database.DeliverySkipped, stored[1].DeliveryStatus)
	assert.Equal(t, "prospect already replied", stored[1].SkipReason)
	assert.Equal(t, database.DeliverySkipped, stored[2].DeliveryStatus)
	assert.Equal(t, database.DeliverySent, stored[3].DeliveryStatus)
}

func TestProcessDueFailsOnMissingContact(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{FirstName: "NoHandle"})

	_, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceHotCloser)
	require.NoError(t, err)

	result, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	assert.Equal(t, database.DeliveryFailed, stored[0].DeliveryStatus)
	assert.Contains(t, stored[0].ErrorMessage, "messenger")
}

func TestProcessDueFailsOnMissingTemplate(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{
		FirstName:       "Tess",
		MessengerHandle: "tess.m",
	})

	def := &database.SequenceDefinition{
		Name: "broken",
		Steps: []database.SequenceStep{
			{StepOrder: 1, ConditionType: database.ConditionAlways, TemplateKey: "never_installed"},
		},
	}
	_, err := env.registry.Register(ctx, env.userID, def)
	require.NoError(t, err)

	_, err = env.materializer.MaterializeByName(ctx, prospect.ID, "broken")
	require.NoError(t, err)

	result, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	stored, err := env.executions.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	assert.Equal(t, database.DeliveryFailed, stored[0].DeliveryStatus)
	assert.Contains(t, stored[0].ErrorMessage, "template")
}

func TestProcessDueEmptyQueue(t *testing.T) {
	env := setupEnv(t)

	result, err := env.processor.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Due)
	assert.Zero(t, result.Claimed)
}

func TestProcessDueDoesNotRevisitClaimedRows(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	prospect := env.createProspect(t, &database.Prospect{
		FirstName:       "Rico",
		MessengerHandle: "rico.p",
	})

	_, err := env.materializer.MaterializeByName(ctx, prospect.ID, pathway.SequenceHotCloser)
	require.NoError(t, err)

	first, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Sent)

	// the sent row is terminal, nothing else is due yet
	second, err := env.processor.ProcessDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Due)
}
