package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	outboxRepo  repository.OutboxRepository
	scheduleSvc *schedule.Service
	notifier    email.Service
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	outboxRepo repository.OutboxRepository,
	scheduleSvc *schedule.Service,
	notifier email.Service,
	m *metrics.Metrics,
	l *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		outboxRepo:  outboxRepo,
		scheduleSvc: scheduleSvc,
		notifier:    notifier,
		metrics:     m,
		logger:      l,
	}
}

// Book creates a pending appointment for the authenticated patient. The
// availability picker is only a snapshot, so the conflict check runs again
// here and the insert itself is conditional on the slot still being free;
// losing that race surfaces as a slot-unavailable error with the blocking
// appointment's details so the caller can pick another slot.
func (s *Service) Book(ctx context.Context, ident *model.Identity, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}

	patient, err := s.patientRepo.GetBySubject(ctx, ident.Subject)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.ProfileNotFound(model.RoleTypePatient)
		}
		return nil, errors.Internal(err)
	}

	doctor, err := s.doctorRepo.Get(ctx, req.DoctorID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(err)
	}
	if doctor.Status != model.DoctorStatusActive {
		return nil, errors.Validation("doctor is not accepting appointments")
	}

	if req.Date.Before(time.Now()) {
		return nil, errors.Validation("appointment cannot be scheduled in the past")
	}

	// Advisory pre-check: cheap rejection with user-facing details before we
	// touch the uniqueness guarantee.
	conflict, err := s.scheduleSvc.CheckConflict(ctx, doctor.ID, req.Date)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if conflict.HasConflict {
		s.metrics.SlotConflicts.Inc()
		s.metrics.BookingAttempts.WithLabelValues("conflict").Inc()
		return nil, errors.SlotUnavailable(errors.SlotConflict{
			DoctorName:      conflict.DoctorName,
			AppointmentTime: conflict.AppointmentTime,
		})
	}

	apt := &model.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      req.Date,
		Status:    model.AppointmentStatusPending,
		Reason:    req.Reason,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if stderrors.Is(err, repository.ErrDuplicateSlot) {
			// Lost the race between the pre-check and the insert.
			s.metrics.SlotConflicts.Inc()
			s.metrics.BookingAttempts.WithLabelValues("conflict").Inc()
			return nil, errors.SlotUnavailable(errors.SlotConflict{
				DoctorName:      doctor.Name,
				AppointmentTime: req.Date,
			})
		}
		s.metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, errors.Internal(err)
	}

	s.metrics.BookingAttempts.WithLabelValues("success").Inc()
	s.publishEvent(ctx, model.EventAppointmentBooked, apt)

	if s.notifier != nil {
		if err := s.notifier.SendBookingConfirmation(ctx, patient.Email, doctor.Name, apt.Date); err != nil {
			s.logger.Error(err, "failed to send booking confirmation", "appointment_id", apt.ID.String())
		}
	}

	return apt, nil
}

// Confirm moves a pending appointment to confirmed. Doctor-only.
func (s *Service) Confirm(ctx context.Context, ident *model.Identity, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, ident, id, model.AppointmentStatusConfirmed, model.EventAppointmentConfirmed)
}

// Cancel cancels a pending or confirmed appointment. Doctor-only; patients
// cancel through their own endpoint which routes here with the owning doctor
// unchanged. Cancellation is a status change, never a delete.
func (s *Service) Cancel(ctx context.Context, ident *model.Identity, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, ident, id, model.AppointmentStatusCancelled, model.EventAppointmentCancelled)
}

func (s *Service) transition(ctx context.Context, ident *model.Identity, id uuid.UUID, next model.AppointmentStatus, eventType string) (*model.Appointment, error) {
	apt, _, err := s.loadOwned(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if !apt.Status.CanTransitionTo(next) {
		return nil, errors.Validation(fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, next))
	}

	apt.Status = next
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, errors.Internal(err)
	}

	s.publishEvent(ctx, eventType, apt)
	return apt, nil
}

// Complete finishes a confirmed appointment and writes its medical record in
// one transaction. A record never exists without a completed appointment and
// a completed appointment never lacks its record.
func (s *Service) Complete(ctx context.Context, ident *model.Identity, id uuid.UUID, consultation *model.ConsultationRequest) (*model.MedicalRecord, error) {
	apt, doctor, err := s.loadOwned(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if !apt.Status.CanTransitionTo(model.AppointmentStatusCompleted) {
		return nil, errors.Validation(fmt.Sprintf("cannot complete appointment in status %s", apt.Status))
	}

	if consultation.Symptoms == "" {
		return nil, errors.Validation("symptoms are required")
	}
	if consultation.Diagnosis == "" {
		return nil, errors.Validation("diagnosis is required")
	}

	record := &model.MedicalRecord{
		PatientID:     apt.PatientID,
		DoctorID:      doctor.ID,
		AppointmentID: apt.ID,
		Symptoms:      consultation.Symptoms,
		Diagnosis:     consultation.Diagnosis,
		Prescription:  consultation.Prescription,
		Notes:         consultation.Notes,
	}
	if err := record.MarshalPrescription(); err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.repo.Complete(ctx, apt, record); err != nil {
		return nil, errors.Internal(err)
	}

	s.publishEvent(ctx, model.EventAppointmentCompleted, apt)
	return record, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, errors.Internal(err)
	}
	return apt, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return appointments, nil
}

// loadOwned fetches the appointment and verifies the caller is the doctor it
// belongs to.
func (s *Service) loadOwned(ctx context.Context, ident *model.Identity, id uuid.UUID) (*model.Appointment, *model.Doctor, error) {
	if ident == nil {
		return nil, nil, errors.Unauthenticated(nil)
	}

	doctor, err := s.doctorRepo.GetBySubject(ctx, ident.Subject)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, nil, errors.ProfileNotFound(model.RoleTypeDoctor)
		}
		return nil, nil, errors.Internal(err)
	}

	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, nil, errors.NotFound("appointment", err)
		}
		return nil, nil, errors.Internal(err)
	}

	if apt.DoctorID != doctor.ID {
		return nil, nil, errors.Unauthorized("appointment belongs to another doctor")
	}
	return apt, doctor, nil
}

func (s *Service) publishEvent(ctx context.Context, eventType string, apt *model.Appointment) {
	event, err := model.NewOutboxEvent(eventType, apt)
	if err != nil {
		s.logger.Error(err, "failed to build outbox event", "event_type", eventType)
		return
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error(err, "failed to write outbox event", "event_type", eventType)
	}
}
