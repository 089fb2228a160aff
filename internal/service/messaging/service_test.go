package messaging_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/messaging"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type convo struct {
	svc      *messaging.Service
	patient  *model.Patient
	doctor   *model.Doctor
	patIdent *model.Identity
	docIdent *model.Identity
}

func newConvo(t *testing.T) *convo {
	t.Helper()
	msgRepo := memory.NewMessageRepository()
	patientRepo := memory.NewPatientRepository()
	doctorRepo := memory.NewDoctorRepository()

	patient := &model.Patient{Subject: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, patientRepo.Create(context.Background(), patient))
	doctor := &model.Doctor{Subject: uuid.New(), Name: "Dr. Okafor", Email: "okafor@clinic.local", Status: model.DoctorStatusActive}
	require.NoError(t, doctorRepo.Create(context.Background(), doctor))

	svc := messaging.NewService(msgRepo, patientRepo, doctorRepo, memory.NewOutboxRepository(), logger.NewLogger(nil))

	return &convo{
		svc:      svc,
		patient:  patient,
		doctor:   doctor,
		patIdent: &model.Identity{Subject: patient.Subject, Role: model.RoleTypePatient},
		docIdent: &model.Identity{Subject: doctor.Subject, Role: model.RoleTypeDoctor},
	}
}

func TestSendFromBothSides(t *testing.T) {
	c := newConvo(t)

	fromPatient, err := c.svc.Send(context.Background(), c.patIdent, &model.SendMessageRequest{
		DoctorID: c.doctor.ID,
		Body:     "is the rash normal?",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTypePatient, fromPatient.SenderRole)
	assert.Equal(t, c.patient.ID, fromPatient.PatientID)

	fromDoctor, err := c.svc.Send(context.Background(), c.docIdent, &model.SendMessageRequest{
		PatientID: c.patient.ID,
		Body:      "please send a photo",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTypeDoctor, fromDoctor.SenderRole)

	history, err := c.svc.Conversation(context.Background(), c.patient.ID, c.doctor.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "is the rash normal?", history[0].Body)
	assert.Equal(t, "please send a photo", history[1].Body)
}

func TestSendRequiresIdentity(t *testing.T) {
	c := newConvo(t)

	_, err := c.svc.Send(context.Background(), nil, &model.SendMessageRequest{Body: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthenticated))

	_, err = c.svc.Send(context.Background(), &model.Identity{Subject: uuid.New()}, &model.SendMessageRequest{Body: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProfileNotFound))
}

func TestSendNeedsCounterparty(t *testing.T) {
	c := newConvo(t)

	_, err := c.svc.Send(context.Background(), c.patIdent, &model.SendMessageRequest{Body: "hello"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestUnreadAndMarkRead(t *testing.T) {
	c := newConvo(t)

	for i := 0; i < 3; i++ {
		_, err := c.svc.Send(context.Background(), c.patIdent, &model.SendMessageRequest{
			DoctorID: c.doctor.ID,
			Body:     "ping",
		})
		require.NoError(t, err)
	}

	// The doctor sees 3 unread; the patient sees their own messages as read.
	count, err := c.svc.UnreadCount(context.Background(), c.docIdent, c.patient.ID, c.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = c.svc.UnreadCount(context.Background(), c.patIdent, c.patient.ID, c.doctor.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, c.svc.MarkRead(context.Background(), c.docIdent, c.patient.ID, c.doctor.ID))

	count, err = c.svc.UnreadCount(context.Background(), c.docIdent, c.patient.ID, c.doctor.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
