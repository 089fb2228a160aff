package onboarding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

const (
	// workloadFloor is the busiest-doctor workload at or below which no
	// redistribution happens.
	workloadFloor = 2
	// workloadShare is the fraction of the busiest doctor's future
	// appointments handed to the new doctor.
	workloadShare = 0.2
	// specialtyBonus caps how many extra appointments move from doctors
	// sharing the new doctor's specialty.
	specialtyBonus = 5
)

// Service rebalances calendars when a new doctor is approved. It only ever
// mutates Appointment.DoctorID and Appointment.Notes; patients and medical
// records are untouched. Every step is best-effort: a failure here must not
// undo the doctor's approval.
type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	metrics         *metrics.Metrics
	logger          *logger.Logger
	now             func() time.Time
}

func NewService(appointmentRepo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, m *metrics.Metrics, l *logger.Logger) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		metrics:         m,
		logger:          l,
		now:             time.Now,
	}
}

// Redistribute runs once per doctor approval. It moves max(1, floor(W*0.2))
// future appointments from the busiest existing doctor (skipped entirely when
// W <= 2), then up to 5 more from doctors sharing the new doctor's specialty.
// Appointments already moved by the workload pass are excluded from the
// specialty pass, so no appointment is considered twice.
func (s *Service) Redistribute(ctx context.Context, newDoctorID uuid.UUID, specialty string) error {
	s.metrics.RedistributionRuns.Inc()

	existing, err := s.doctorRepo.ListActive(ctx, newDoctorID)
	if err != nil {
		return fmt.Errorf("failed to list active doctors: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	future, err := s.appointmentRepo.ListFuture(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to list future appointments: %w", err)
	}

	byDoctor := make(map[uuid.UUID][]*model.Appointment)
	for _, apt := range future {
		byDoctor[apt.DoctorID] = append(byDoctor[apt.DoctorID], apt)
	}

	moved := make(map[uuid.UUID]struct{})

	// Workload pass: relieve the busiest doctor.
	busiest, workload := s.busiest(existing, byDoctor)
	if workload > workloadFloor {
		count := int(float64(workload) * workloadShare)
		if count < 1 {
			count = 1
		}
		for _, apt := range byDoctor[busiest][:count] {
			if err := s.reassign(ctx, apt, newDoctorID, "workload"); err != nil {
				s.logger.Error(err, "failed to reassign appointment",
					"appointment_id", apt.ID.String(), "pass", "workload")
				continue
			}
			moved[apt.ID] = struct{}{}
		}
	}

	// Specialty pass: pull a handful from same-specialty doctors so the new
	// doctor starts with relevant cases.
	if specialty != model.SpecialtyGeneral {
		peers := make(map[uuid.UUID]struct{})
		for _, doc := range existing {
			if doc.Specialty == specialty {
				peers[doc.ID] = struct{}{}
			}
		}

		count := 0
		for _, apt := range future {
			if count >= specialtyBonus {
				break
			}
			if _, isPeer := peers[apt.DoctorID]; !isPeer {
				continue
			}
			if _, alreadyMoved := moved[apt.ID]; alreadyMoved {
				continue
			}
			if err := s.reassign(ctx, apt, newDoctorID, "specialty"); err != nil {
				s.logger.Error(err, "failed to reassign appointment",
					"appointment_id", apt.ID.String(), "pass", "specialty")
				continue
			}
			moved[apt.ID] = struct{}{}
			count++
		}
	}

	s.logger.Info("redistribution finished",
		"new_doctor_id", newDoctorID.String(), "moved", len(moved))
	return nil
}

// busiest returns the existing doctor with the most future appointments.
// ListFuture orders by date, so each doctor's slice is earliest-first, which
// is the order the workload pass consumes.
func (s *Service) busiest(doctors []*model.Doctor, byDoctor map[uuid.UUID][]*model.Appointment) (uuid.UUID, int) {
	var busiest uuid.UUID
	max := 0
	for _, doc := range doctors {
		if n := len(byDoctor[doc.ID]); n > max {
			busiest = doc.ID
			max = n
		}
	}
	return busiest, max
}

func (s *Service) reassign(ctx context.Context, apt *model.Appointment, newDoctorID uuid.UUID, pass string) error {
	note := fmt.Sprintf("[rebalanced %s: reassigned to new doctor]", s.now().Format("2006-01-02"))
	if err := s.appointmentRepo.Reassign(ctx, apt.ID, newDoctorID, note); err != nil {
		return err
	}
	s.metrics.RedistributionMoves.WithLabelValues(pass).Inc()
	return nil
}
