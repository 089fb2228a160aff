package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type messageRepository struct {
	BaseRepository
}

func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (
			id, patient_id, doctor_id, sender_id, sender_role,
			body, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	message.ID = uuid.New()
	message.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.PatientID,
		message.DoctorID,
		message.SenderID,
		message.SenderRole,
		message.Body,
		message.IsRead,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListConversation(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Message, error) {
	query := `
		SELECT id, patient_id, doctor_id, sender_id, sender_role, body, is_read, created_at
		FROM messages
		WHERE patient_id = $1 AND doctor_id = $2
		ORDER BY created_at ASC
	`
	var messages []*model.Message
	if err := r.db.SelectContext(ctx, &messages, query, patientID, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) error {
	// Only messages sent by the other party become read.
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE patient_id = $1 AND doctor_id = $2
		AND sender_role <> $3
		AND is_read = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, patientID, doctorID, readerRole); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (r *messageRepository) CountUnread(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE patient_id = $1 AND doctor_id = $2
		AND sender_role <> $3
		AND is_read = FALSE
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, patientID, doctorID, readerRole); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
