package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// MessageTemplate is an opaque message body with {{placeholder}} variables.
type MessageTemplate struct {
	ID          types.ID  `json:"id"`
	UserID      types.ID  `json:"user_id"`
	TemplateKey string    `json:"template_key"`
	Channel     string    `json:"channel"`
	Body        string    `json:"body"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateDAO provides database operations for message templates.
type TemplateDAO interface {
	// Upsert creates or replaces a template for (user, key)
	Upsert(ctx context.Context, tpl *MessageTemplate) error

	// GetByKey retrieves an active template by key for a user
	GetByKey(ctx context.Context, userID types.ID, key string) (*MessageTemplate, error)

	// ListByUser returns all templates for a user
	ListByUser(ctx context.Context, userID types.ID) ([]*MessageTemplate, error)
}

type templateDAO struct {
	db *DB
}

// NewTemplateDAO creates a new template DAO
func NewTemplateDAO(db *DB) TemplateDAO {
	return &templateDAO{db: db}
}

func (d *templateDAO) Upsert(ctx context.Context, tpl *MessageTemplate) error {
	if tpl.ID == "" {
		tpl.ID = types.NewID()
	}
	if tpl.Channel == "" {
		tpl.Channel = "messenger"
	}

	query := `
		INSERT INTO message_templates (id, user_id, template_key, channel, body, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, template_key) DO UPDATE SET
			channel = excluded.channel,
			body = excluded.body,
			active = excluded.active
	`

	_, err := d.db.ExecContext(ctx, query,
		tpl.ID, tpl.UserID, tpl.TemplateKey, tpl.Channel, tpl.Body, boolToInt(tpl.Active))
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to upsert template", err)
	}
	return nil
}

func (d *templateDAO) GetByKey(ctx context.Context, userID types.ID, key string) (*MessageTemplate, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, template_key, channel, body, active, created_at
		FROM message_templates
		WHERE user_id = ? AND template_key = ? AND active = 1
	`, userID, key)

	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.TEMPLATE_NOT_FOUND, "template not found: "+key)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get template", err)
	}
	return tpl, nil
}

func (d *templateDAO) ListByUser(ctx context.Context, userID types.ID) ([]*MessageTemplate, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, template_key, channel, body, active, created_at
		FROM message_templates
		WHERE user_id = ?
		ORDER BY template_key
	`, userID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list templates", err)
	}
	defer rows.Close()

	var templates []*MessageTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan template row", err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func scanTemplate(row rowScanner) (*MessageTemplate, error) {
	var tpl MessageTemplate
	var active int
	err := row.Scan(&tpl.ID, &tpl.UserID, &tpl.TemplateKey, &tpl.Channel,
		&tpl.Body, &active, &tpl.CreatedAt)
	if err != nil {
		return nil, err
	}
	tpl.Active = active == 1
	return &tpl, nil
}
