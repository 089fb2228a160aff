package patient

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

type Service struct {
	repo       repository.PatientRepository
	recordRepo repository.MedicalRecordRepository
	doctorRepo repository.DoctorRepository
	hasher     security.PasswordHasher
}

func NewService(repo repository.PatientRepository, recordRepo repository.MedicalRecordRepository, doctorRepo repository.DoctorRepository, hasher security.PasswordHasher) *Service {
	return &Service{
		repo:       repo,
		recordRepo: recordRepo,
		doctorRepo: doctorRepo,
		hasher:     hasher,
	}
}

// Register creates a patient profile tied to a fresh identity subject.
func (s *Service) Register(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, errors.Validation("email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	patient := &model.Patient{
		Subject:      uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}
	return patient, nil
}

// Profile resolves the authenticated patient's own record.
func (s *Service) Profile(ctx context.Context, ident *model.Identity) (*model.Patient, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}
	patient, err := s.repo.GetBySubject(ctx, ident.Subject)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.ProfileNotFound(model.RoleTypePatient)
		}
		return nil, errors.Internal(err)
	}
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("patient", err)
		}
		return nil, errors.Internal(err)
	}
	return patient, nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return patients, nil
}

// UpdateContact lets a patient change their own contact fields.
func (s *Service) UpdateContact(ctx context.Context, ident *model.Identity, req *model.UpdatePatientContactRequest) (*model.Patient, error) {
	patient, err := s.Profile(ctx, ident)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.EmergencyContactName != nil {
		patient.EmergencyContactName = *req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		patient.EmergencyContactPhone = *req.EmergencyContactPhone
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}
	return patient, nil
}

// UpdateMedical lets a doctor maintain a patient's medical metadata.
func (s *Service) UpdateMedical(ctx context.Context, ident *model.Identity, patientID uuid.UUID, req *model.UpdatePatientMedicalRequest) (*model.Patient, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}
	if _, err := s.doctorRepo.GetBySubject(ctx, ident.Subject); err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.Unauthorized("only doctors can update medical metadata")
		}
		return nil, errors.Internal(err)
	}

	patient, err := s.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.ChronicConditions != nil {
		patient.ChronicConditions = *req.ChronicConditions
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, errors.Internal(err)
	}
	return patient, nil
}

// MedicalRecords lists the patient's consultation records, newest first.
func (s *Service) MedicalRecords(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	records, err := s.recordRepo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return records, nil
}
