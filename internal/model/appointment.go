package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// pending -> confirmed|cancelled, confirmed -> completed|cancelled; completed
// and cancelled are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
	default:
		return false
	}
}

// Appointment occupies a single instant on a doctor's slot grid. Date is the
// exact start instant; the slot length is implied by the scheduling policy,
// so conflicts are exact-timestamp matches rather than interval overlaps.
type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      time.Time         `db:"date" json:"date"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Reason    string            `db:"reason" json:"reason"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
}

type BookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     time.Time `json:"date" binding:"required,futuredate"`
	Reason   string    `json:"reason" binding:"required,max=1000"`
}

// ConsultationRequest is the payload submitted when a doctor completes an
// appointment. Symptoms and diagnosis are mandatory.
type ConsultationRequest struct {
	Symptoms     string         `json:"symptoms" binding:"required"`
	Diagnosis    string         `json:"diagnosis" binding:"required"`
	Prescription []Prescription `json:"prescription"`
	Notes        string         `json:"notes"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	StartDate time.Time
	EndDate   time.Time
}
