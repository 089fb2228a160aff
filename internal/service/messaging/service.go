package messaging

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type Service struct {
	repo        repository.MessageRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	outboxRepo  repository.OutboxRepository
	logger      *logger.Logger
}

func NewService(
	repo repository.MessageRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	outboxRepo repository.OutboxRepository,
	l *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		outboxRepo:  outboxRepo,
		logger:      l,
	}
}

// Send appends a message to the conversation room keyed by patient id. The
// sender must be one of the two participants.
func (s *Service) Send(ctx context.Context, ident *model.Identity, req *model.SendMessageRequest) (*model.Message, error) {
	if ident == nil {
		return nil, errors.Unauthenticated(nil)
	}

	var msg *model.Message

	if patient, err := s.patientRepo.GetBySubject(ctx, ident.Subject); err == nil {
		msg = &model.Message{
			PatientID:  patient.ID,
			DoctorID:   req.DoctorID,
			SenderID:   patient.ID,
			SenderRole: model.RoleTypePatient,
			Body:       req.Body,
		}
	} else if !stderrors.Is(err, repository.ErrNoRows) {
		return nil, errors.Internal(err)
	}

	if msg == nil {
		doctor, err := s.doctorRepo.GetBySubject(ctx, ident.Subject)
		if err != nil {
			if stderrors.Is(err, repository.ErrNoRows) {
				return nil, errors.ProfileNotFound("patient or doctor")
			}
			return nil, errors.Internal(err)
		}
		msg = &model.Message{
			PatientID:  req.PatientID,
			DoctorID:   doctor.ID,
			SenderID:   doctor.ID,
			SenderRole: model.RoleTypeDoctor,
			Body:       req.Body,
		}
	}

	if msg.PatientID == uuid.Nil || msg.DoctorID == uuid.Nil {
		return nil, errors.Validation("conversation requires both patient and doctor")
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, errors.Internal(err)
	}

	if event, err := model.NewOutboxEvent(model.EventMessageSent, msg); err == nil {
		if err := s.outboxRepo.Create(ctx, event); err != nil {
			s.logger.Error(err, "failed to write outbox event", "event_type", model.EventMessageSent)
		}
	}

	return msg, nil
}

// Conversation returns the full history between a patient and a doctor,
// oldest first.
func (s *Service) Conversation(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Message, error) {
	messages, err := s.repo.ListConversation(ctx, patientID, doctorID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return messages, nil
}

// MarkRead marks the other party's messages as read. Read state only ever
// moves from unread to read.
func (s *Service) MarkRead(ctx context.Context, ident *model.Identity, patientID, doctorID uuid.UUID) error {
	if ident == nil {
		return errors.Unauthenticated(nil)
	}
	if err := s.repo.MarkRead(ctx, patientID, doctorID, ident.Role); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// UnreadCount returns how many messages from the other party are unread.
func (s *Service) UnreadCount(ctx context.Context, ident *model.Identity, patientID, doctorID uuid.UUID) (int, error) {
	if ident == nil {
		return 0, errors.Unauthenticated(nil)
	}
	count, err := s.repo.CountUnread(ctx, patientID, doctorID, ident.Role)
	if err != nil {
		return 0, errors.Internal(err)
	}
	return count, nil
}
