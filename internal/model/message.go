package model

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to a conversation room keyed by patient id. IsRead is the
// only mutable field and only ever flips false -> true.
type Message struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderRole string    `db:"sender_role" json:"sender_role"`
	Body       string    `db:"body" json:"body"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SendMessageRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Body      string    `json:"body" binding:"required,max=4000"`
}
