package vitals

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	repo        repository.VitalRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
}

func NewService(repo repository.VitalRepository, patientRepo repository.PatientRepository, doctorRepo repository.DoctorRepository) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
	}
}

// Log appends one vital reading. Patients log for themselves; doctors log on
// a patient's behalf. The series is append-only, there is no update path.
func (s *Service) Log(ctx context.Context, ident *model.Identity, patientID uuid.UUID, req *model.LogVitalRequest) (*model.Vital, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}

	patient, err := s.patientRepo.Get(ctx, patientID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("patient", err)
		}
		return nil, errors.Internal(err)
	}

	if patient.Subject != ident.Subject {
		if _, err := s.doctorRepo.GetBySubject(ctx, ident.Subject); err != nil {
			if stderrors.Is(err, repository.ErrNoRows) {
				return nil, errors.Unauthorized("vitals can only be logged by the patient or a doctor")
			}
			return nil, errors.Internal(err)
		}
	}

	vital := &model.Vital{
		PatientID:  patient.ID,
		Type:       req.Type,
		Value:      req.Value,
		Unit:       req.Unit,
		RecordedBy: ident.Subject,
		RecordedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, vital); err != nil {
		return nil, errors.Internal(err)
	}
	return vital, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID, filters *model.VitalFilters) ([]*model.Vital, error) {
	vitals, err := s.repo.ListForPatient(ctx, patientID, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return vitals, nil
}
