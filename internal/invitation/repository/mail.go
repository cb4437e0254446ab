package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
)

// MailRepository enqueues templated email records. An external pipeline
// consumes the mail table and performs the actual delivery.
type MailRepository struct {
	db *database.DB
}

// NewMailRepository creates a new mail repository
func NewMailRepository(db *database.DB) *MailRepository {
	return &MailRepository{db: db}
}

// Enqueue inserts one mail record. Pass a transaction as ext to enqueue
// atomically with other writes, or nil for the pool.
func (r *MailRepository) Enqueue(ctx context.Context, ext sqlx.ExtContext, msg *domain.MailMessage) error {
	if ext == nil {
		ext = r.db
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	query := `
		INSERT INTO mail (id, recipient, template_name, template_data)
		VALUES ($1, $2, $3, $4)
	`

	_, err := ext.ExecContext(ctx, query, msg.ID, msg.Recipient, msg.TemplateName, msg.TemplateData)
	return err
}
