package doctor

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/onboarding"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/security"
)

type Service struct {
	repo       repository.DoctorRepository
	outboxRepo repository.OutboxRepository
	onboarding *onboarding.Service
	hasher     security.PasswordHasher
	notifier   email.Service
	logger     *logger.Logger
}

func NewService(
	repo repository.DoctorRepository,
	outboxRepo repository.OutboxRepository,
	onboardingSvc *onboarding.Service,
	hasher security.PasswordHasher,
	notifier email.Service,
	l *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		onboarding: onboardingSvc,
		hasher:     hasher,
		notifier:   notifier,
		logger:     l,
	}
}

// Register creates a doctor in pending status awaiting admin approval.
func (s *Service) Register(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, errors.Validation("email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	doctor := &model.Doctor{
		Subject:      uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Specialty:    req.Specialty,
		Status:       model.DoctorStatusPending,
		Role:         model.RoleTypeDoctor,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, errors.Internal(err)
	}
	return doctor, nil
}

// Approve activates a pending doctor. Admin-only. Approval is the primary
// effect; calendar redistribution runs afterwards in the background and its
// failure never rolls the approval back.
func (s *Service) Approve(ctx context.Context, ident *model.Identity, id uuid.UUID) (*model.Doctor, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}
	if ident.Role != model.RoleTypeAdmin && ident.Role != model.RoleTypeSuperAdmin {
		return nil, errors.Unauthorized("only admins can approve doctors")
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(err)
	}

	if doctor.Status == model.DoctorStatusActive {
		return nil, errors.Validation("doctor is already active")
	}

	doctor.Status = model.DoctorStatusActive
	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, errors.Internal(err)
	}

	if event, err := model.NewOutboxEvent(model.EventDoctorApproved, doctor); err == nil {
		if err := s.outboxRepo.Create(ctx, event); err != nil {
			s.logger.Error(err, "failed to write outbox event", "event_type", model.EventDoctorApproved)
		}
	}

	go func() {
		ctx := context.Background()
		if err := s.onboarding.Redistribute(ctx, doctor.ID, doctor.Specialty); err != nil {
			s.logger.Error(err, "redistribution failed", "doctor_id", doctor.ID.String())
		}
		if s.notifier != nil {
			if err := s.notifier.SendDoctorApproval(ctx, doctor.Email, doctor.Name); err != nil {
				s.logger.Error(err, "failed to send approval email", "doctor_id", doctor.ID.String())
			}
		}
	}()

	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(err)
	}
	return doctor, nil
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return doctors, nil
}

// Update mutates a doctor's profile fields. Status and role changes are
// restricted to admins; doctors are never hard-deleted, deactivation is a
// status change.
func (s *Service) Update(ctx context.Context, ident *model.Identity, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}

	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNoRows) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Internal(err)
	}

	isAdmin := ident.Role == model.RoleTypeAdmin || ident.Role == model.RoleTypeSuperAdmin
	if (req.Status != nil || req.Role != nil) && !isAdmin {
		return nil, errors.Unauthorized("only admins can change status or role")
	}
	if !isAdmin && doctor.Subject != ident.Subject {
		return nil, errors.Unauthorized("cannot update another doctor's profile")
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.Status != nil {
		doctor.Status = *req.Status
	}
	if req.Role != nil {
		doctor.Role = *req.Role
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, errors.Internal(err)
	}
	return doctor, nil
}
