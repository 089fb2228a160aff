package auth

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/auth"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

type Service struct {
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
}

func NewService(patientRepo repository.PatientRepository, doctorRepo repository.DoctorRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
	}
}

// Login verifies credentials for the requested role and issues a token pair.
// The token subject is the profile's stable identity reference, not its row
// id.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	var (
		subject uuid.UUID
		hash    string
		role    string
	)

	switch req.Role {
	case model.RoleTypePatient:
		patient, err := s.patientRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			if stderrors.Is(err, repository.ErrNoRows) {
				return nil, errors.Unauthenticated(nil)
			}
			return nil, errors.Internal(err)
		}
		subject, hash, role = patient.Subject, patient.PasswordHash, model.RoleTypePatient
	default:
		doctor, err := s.doctorRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			if stderrors.Is(err, repository.ErrNoRows) {
				return nil, errors.Unauthenticated(nil)
			}
			return nil, errors.Internal(err)
		}
		if doctor.Status == model.DoctorStatusInactive {
			return nil, errors.Unauthorized("account is deactivated")
		}
		subject, hash, role = doctor.Subject, doctor.PasswordHash, doctor.Role
	}

	if err := s.hasher.Compare(hash, req.Password); err != nil {
		return nil, errors.Unauthenticated(err)
	}

	return s.issueTokens(subject, req.Email, role)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthenticated(err)
	}
	return s.issueTokens(claims.Subject, claims.Email, claims.Role)
}

// Resolve turns a bearer token into a caller identity.
func (s *Service) Resolve(ctx context.Context, token string) (*model.Identity, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthenticated(err)
	}
	return &model.Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

func (s *Service) issueTokens(subject uuid.UUID, email, role string) (*model.TokenPair, error) {
	access, err := s.jwtSvc.GenerateAccessToken(subject, email, role)
	if err != nil {
		return nil, errors.Internal(err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(subject, email, role)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
