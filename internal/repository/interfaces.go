package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// ErrDuplicateSlot is returned by AppointmentRepository.Create when another
// non-cancelled appointment already holds the same (doctor, date) pair. The
// store enforces this atomically; callers translate it into a user-facing
// slot-unavailable condition.
var ErrDuplicateSlot = errors.New("slot already booked")

// ErrNoRows is returned when a lookup matches nothing.
var ErrNoRows = errors.New("not found")

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetBySubject(ctx context.Context, subject uuid.UUID) (*model.Doctor, error)
		GetByEmail(ctx context.Context, email string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		ListActive(ctx context.Context, exclude uuid.UUID) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetBySubject(ctx context.Context, subject uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		// Create inserts the appointment and returns ErrDuplicateSlot when a
		// non-cancelled appointment already occupies (doctor_id, date).
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListForDoctorDay returns all appointments for the doctor with date
		// in [day, day+24h), regardless of status.
		ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.Appointment, error)
		// FindAtSlot returns the non-cancelled appointment at the exact
		// instant, or ErrNoRows.
		FindAtSlot(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.Appointment, error)
		// ListFuture returns non-completed, non-cancelled appointments with
		// date >= from, ordered by date ascending.
		ListFuture(ctx context.Context, from time.Time) ([]*model.Appointment, error)
		// Complete atomically marks the appointment completed and inserts its
		// medical record in a single transaction.
		Complete(ctx context.Context, appointment *model.Appointment, record *model.MedicalRecord) error
		// Reassign moves the appointment to another doctor, appending the
		// audit marker to its notes.
		Reassign(ctx context.Context, id, newDoctorID uuid.UUID, auditNote string) error
	}

	MedicalRecordRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	VitalRepository interface {
		Create(ctx context.Context, vital *model.Vital) error
		ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.VitalFilters) ([]*model.Vital, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, message *model.Message) error
		ListConversation(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Message, error)
		// MarkRead flips is_read on every unread message in the conversation
		// that was sent by the other party.
		MarkRead(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) error
		CountUnread(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
