package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

type MessageRepository struct {
	mu       sync.Mutex
	messages []*model.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	copy := *message
	r.messages = append(r.messages, &copy)
	return nil
}

func (r *MessageRepository) ListConversation(ctx context.Context, patientID, doctorID uuid.UUID) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Message
	for _, msg := range r.messages {
		if msg.PatientID == patientID && msg.DoctorID == doctorID {
			copy := *msg
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.PatientID == patientID && msg.DoctorID == doctorID && msg.SenderRole != readerRole {
			msg.IsRead = true
		}
	}
	return nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, patientID, doctorID uuid.UUID, readerRole string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, msg := range r.messages {
		if msg.PatientID == patientID && msg.DoctorID == doctorID && msg.SenderRole != readerRole && !msg.IsRead {
			count++
		}
	}
	return count, nil
}
