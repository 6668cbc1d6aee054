package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// DeliveryStatus is the lifecycle state of a step execution.
// pending transitions exactly once to one of the terminal states.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliverySent       DeliveryStatus = "sent"
	DeliverySkipped    DeliveryStatus = "skipped"
	DeliveryFailed     DeliveryStatus = "failed"
	DeliverySuperseded DeliveryStatus = "superseded"
)

// IsTerminal reports whether the status is terminal. Terminal executions
// are never revisited; re-attempting requires a fresh execution.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliverySent, DeliverySkipped, DeliveryFailed, DeliverySuperseded:
		return true
	}
	return false
}

// StepExecution is one concrete, schedulable instance of a sequence step
// for one prospect. Condition, template, and channel are copied from the
// sequence step at materialization time so definition edits never change
// in-flight work.
type StepExecution struct {
	ID             types.ID       `json:"id"`
	ProspectID     types.ID       `json:"prospect_id"`
	SequenceID     types.ID       `json:"sequence_id"`
	StepOrder      int            `json:"step_order"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	ConditionType  ConditionType  `json:"condition_type"`
	TemplateKey    string         `json:"template_key"`
	Channel        string         `json:"channel"`
	ScheduledFor   time.Time      `json:"scheduled_for"`
	MessageContent string         `json:"message_content,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	SkipReason     string         `json:"skip_reason,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	Attempts       int            `json:"attempts"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ExecutionDAO provides database operations for step executions.
// Creation belongs to the materializer; transitions belong to the processor.
type ExecutionDAO interface {
	// CreateBatch inserts all executions in one transaction. The UNIQUE
	// (prospect_id, sequence_id, step_order) constraint makes duplicate
	// materialization fail atomically with no partial writes.
	CreateBatch(ctx context.Context, executions []*StepExecution) error

	// GetByID retrieves an execution
	GetByID(ctx context.Context, id types.ID) (*StepExecution, error)

	// ListByProspect returns all executions for a prospect in step order
	ListByProspect(ctx context.Context, prospectID types.ID) ([]*StepExecution, error)

	// ListDue returns up to limit pending executions due at or before now
	ListDue(ctx context.Context, now time.Time, limit int) ([]*StepExecution, error)

	// Claim atomically claims a pending, unclaimed execution for
	// processing. Returns false when another invocation won the claim or
	// the execution already transitioned.
	Claim(ctx context.Context, id types.ID) (bool, error)

	// MarkSent transitions a pending execution to sent
	MarkSent(ctx context.Context, id types.ID, content string, sentAt time.Time) error

	// MarkSkipped transitions a pending execution to skipped
	MarkSkipped(ctx context.Context, id types.ID, reason string) error

	// MarkFailed transitions a pending execution to failed
	MarkFailed(ctx context.Context, id types.ID, errorMessage string) error

	// SupersedePending cancels all pending executions for a prospect,
	// used when a new pathway replaces the plan they were scheduled under
	SupersedePending(ctx context.Context, prospectID types.ID) (int, error)

	// CountByStatus returns execution counts per delivery status
	CountByStatus(ctx context.Context, prospectID types.ID) (map[DeliveryStatus]int, error)

	// CountStalled returns the number of executions claimed by a run
	// that never finished: still pending with attempts > 0. ListDue
	// never returns them again, so they need operator attention.
	CountStalled(ctx context.Context, prospectID types.ID) (int, error)
}

type executionDAO struct {
	db *DB
}

// NewExecutionDAO creates a new execution DAO
func NewExecutionDAO(db *DB) ExecutionDAO {
	return &executionDAO{db: db}
}

const executionColumns = `
	id, prospect_id, sequence_id, step_order, delivery_status,
	condition_type, template_key, channel, scheduled_for,
	message_content, sent_at, skip_reason, error_message,
	attempts, created_at, updated_at`

func (d *executionDAO) CreateBatch(ctx context.Context, executions []*StepExecution) error {
	if len(executions) == 0 {
		return nil
	}

	err := d.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, e := range executions {
			if e.ID == "" {
				e.ID = types.NewID()
			}
			if e.DeliveryStatus == "" {
				e.DeliveryStatus = DeliveryPending
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO step_executions (
					id, prospect_id, sequence_id, step_order, delivery_status,
					condition_type, template_key, channel, scheduled_for,
					attempts, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			`, e.ID, e.ProspectID, e.SequenceID, e.StepOrder, e.DeliveryStatus,
				e.ConditionType, e.TemplateKey, e.Channel, e.ScheduledFor.UTC())
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.WrapError(types.EXECUTION_ALREADY_EXISTS,
				"executions already materialized for this prospect and sequence", err)
		}
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create executions", err)
	}
	return nil
}

func (d *executionDAO) GetByID(ctx context.Context, id types.ID) (*StepExecution, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT"+executionColumns+" FROM step_executions WHERE id = ?", id)

	e, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.DB_QUERY_FAILED, "execution not found: "+id.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get execution", err)
	}
	return e, nil
}

func (d *executionDAO) ListByProspect(ctx context.Context, prospectID types.ID) ([]*StepExecution, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT"+executionColumns+` FROM step_executions
		WHERE prospect_id = ?
		ORDER BY sequence_id, step_order`, prospectID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list executions", err)
	}
	defer rows.Close()

	return collectExecutions(rows)
}

func (d *executionDAO) ListDue(ctx context.Context, now time.Time, limit int) ([]*StepExecution, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT"+executionColumns+` FROM step_executions
		WHERE delivery_status = ? AND attempts = 0 AND scheduled_for <= ?
		LIMIT ?`, DeliveryPending, now.UTC(), limit)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list due executions", err)
	}
	defer rows.Close()

	return collectExecutions(rows)
}

// Claim is a compare-and-set on the attempts counter: only one invocation
// can move it 0 -> 1, so two overlapping batch runs never both process the
// same execution. An execution claimed by a crashed run stays pending with
// attempts = 1 and is surfaced by operational tooling rather than resent.
func (d *executionDAO) Claim(ctx context.Context, id types.ID) (bool, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE step_executions
		SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND delivery_status = ? AND attempts = 0
	`, id, DeliveryPending)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to claim execution", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to check claim result", err)
	}
	return affected == 1, nil
}

func (d *executionDAO) MarkSent(ctx context.Context, id types.ID, content string, sentAt time.Time) error {
	return d.transition(ctx, id, `
		UPDATE step_executions
		SET delivery_status = ?, message_content = ?, sent_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND delivery_status = ?
	`, DeliverySent, content, sentAt.UTC(), id, DeliveryPending)
}

func (d *executionDAO) MarkSkipped(ctx context.Context, id types.ID, reason string) error {
	return d.transition(ctx, id, `
		UPDATE step_executions
		SET delivery_status = ?, skip_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND delivery_status = ?
	`, DeliverySkipped, reason, id, DeliveryPending)
}

func (d *executionDAO) MarkFailed(ctx context.Context, id types.ID, errorMessage string) error {
	return d.transition(ctx, id, `
		UPDATE step_executions
		SET delivery_status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND delivery_status = ?
	`, DeliveryFailed, errorMessage, id, DeliveryPending)
}

// transition runs a guarded terminal transition. The WHERE clause on the
// current status makes each transition happen at most once.
func (d *executionDAO) transition(ctx context.Context, id types.ID, query string, args ...interface{}) error {
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to transition execution", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to check transition result", err)
	}
	if affected == 0 {
		return types.NewError(types.EXECUTION_NOT_CLAIMABLE,
			"execution "+id.String()+" is not pending")
	}
	return nil
}

func (d *executionDAO) SupersedePending(ctx context.Context, prospectID types.ID) (int, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE step_executions
		SET delivery_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE prospect_id = ? AND delivery_status = ?
	`, DeliverySuperseded, prospectID, DeliveryPending)
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to supersede executions", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to check supersede result", err)
	}
	return int(affected), nil
}

func (d *executionDAO) CountByStatus(ctx context.Context, prospectID types.ID) (map[DeliveryStatus]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT delivery_status, COUNT(*)
		FROM step_executions
		WHERE prospect_id = ?
		GROUP BY delivery_status
	`, prospectID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to count executions", err)
	}
	defer rows.Close()

	counts := make(map[DeliveryStatus]int)
	for rows.Next() {
		var status DeliveryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan count row", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (d *executionDAO) CountStalled(ctx context.Context, prospectID types.ID) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM step_executions
		WHERE prospect_id = ? AND delivery_status = ? AND attempts > 0
	`, prospectID, DeliveryPending).Scan(&count)
	if err != nil {
		return 0, types.WrapError(types.DB_QUERY_FAILED, "failed to count stalled executions", err)
	}
	return count, nil
}

func collectExecutions(rows *sql.Rows) ([]*StepExecution, error) {
	var executions []*StepExecution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan execution row", err)
		}
		executions = append(executions, e)
	}
	return executions, rows.Err()
}

func scanExecution(row rowScanner) (*StepExecution, error) {
	var e StepExecution
	var content, skipReason, errorMessage sql.NullString
	var sentAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.ProspectID, &e.SequenceID, &e.StepOrder, &e.DeliveryStatus,
		&e.ConditionType, &e.TemplateKey, &e.Channel, &e.ScheduledFor,
		&content, &sentAt, &skipReason, &errorMessage,
		&e.Attempts, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if content.Valid {
		e.MessageContent = content.String
	}
	if sentAt.Valid {
		e.SentAt = &sentAt.Time
	}
	if skipReason.Valid {
		e.SkipReason = skipReason.String
	}
	if errorMessage.Valid {
		e.ErrorMessage = errorMessage.String
	}
	return &e, nil
}
