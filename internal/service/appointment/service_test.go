package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/appointment"
	"github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// Prometheus collectors register globally, so the whole test binary shares one
// metrics instance.
var testMetrics = metrics.NewMetrics("clinic_test", "appointment")

type fixture struct {
	svc      *appointment.Service
	aptRepo  *memory.AppointmentRepository
	docRepo  *memory.DoctorRepository
	outbox   *memory.OutboxRepository
	patient  *model.Patient
	doctor   *model.Doctor
	ident    *model.Identity
	docIdent *model.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	aptRepo := memory.NewAppointmentRepository()
	patientRepo := memory.NewPatientRepository()
	doctorRepo := memory.NewDoctorRepository()
	outboxRepo := memory.NewOutboxRepository()
	scheduleSvc := schedule.NewService(aptRepo, doctorRepo, schedule.DefaultSlotPolicy)

	patient := &model.Patient{
		Subject: uuid.New(),
		Name:    "Ana Flores",
		Email:   "ana@example.com",
	}
	require.NoError(t, patientRepo.Create(context.Background(), patient))

	doctor := &model.Doctor{
		Subject:   uuid.New(),
		Name:      "Dr. Okafor",
		Email:     "okafor@clinic.local",
		Specialty: "dermatology",
		Status:    model.DoctorStatusActive,
	}
	require.NoError(t, doctorRepo.Create(context.Background(), doctor))

	svc := appointment.NewService(
		aptRepo,
		patientRepo,
		doctorRepo,
		outboxRepo,
		scheduleSvc,
		nil,
		testMetrics,
		logger.NewLogger(nil),
	)

	return &fixture{
		svc:      svc,
		aptRepo:  aptRepo,
		docRepo:  doctorRepo,
		outbox:   outboxRepo,
		patient:  patient,
		doctor:   doctor,
		ident:    &model.Identity{Subject: patient.Subject, Email: patient.Email, Role: model.RoleTypePatient},
		docIdent: &model.Identity{Subject: doctor.Subject, Email: doctor.Email, Role: model.RoleTypeDoctor},
	}
}

func futureSlot() time.Time {
	return time.Now().Add(48 * time.Hour).Truncate(time.Hour).Add(10 * time.Hour)
}

func TestBook(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "persistent rash",
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, f.patient.ID, apt.PatientID)
	assert.Equal(t, f.doctor.ID, apt.DoctorID)

	events := f.outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAppointmentBooked, events[0].EventType)
}

func TestBookUnauthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), nil, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthenticated))
}

func TestBookNoPatientProfile(t *testing.T) {
	f := newFixture(t)

	stranger := &model.Identity{Subject: uuid.New(), Role: model.RoleTypePatient}
	_, err := f.svc.Book(context.Background(), stranger, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProfileNotFound))
}

func TestBookPastDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     time.Now().Add(-time.Hour),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestBookSlotTaken(t *testing.T) {
	f := newFixture(t)
	slot := futureSlot()

	_, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     slot,
		Reason:   "checkup",
	})
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     slot,
		Reason:   "checkup",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSlotUnavailable))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	conflict, ok := appErr.Details.(errors.SlotConflict)
	require.True(t, ok)
	assert.Equal(t, "Dr. Okafor", conflict.DoctorName)
	assert.True(t, conflict.AppointmentTime.Equal(slot))
}

// blindRepo simulates the window between the advisory conflict check and the
// insert: the check sees the slot as free while the store's uniqueness
// guarantee still rejects the write.
type blindRepo struct {
	*memory.AppointmentRepository
}

func (r *blindRepo) FindAtSlot(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.Appointment, error) {
	return nil, repository.ErrNoRows
}

func TestBookLosesInsertRace(t *testing.T) {
	aptRepo := &blindRepo{memory.NewAppointmentRepository()}
	patientRepo := memory.NewPatientRepository()
	doctorRepo := memory.NewDoctorRepository()
	scheduleSvc := schedule.NewService(aptRepo, doctorRepo, schedule.DefaultSlotPolicy)

	patient := &model.Patient{Subject: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, patientRepo.Create(context.Background(), patient))
	doctor := &model.Doctor{Subject: uuid.New(), Name: "Dr. Okafor", Email: "okafor@clinic.local", Status: model.DoctorStatusActive}
	require.NoError(t, doctorRepo.Create(context.Background(), doctor))

	svc := appointment.NewService(
		aptRepo, patientRepo, doctorRepo, memory.NewOutboxRepository(),
		scheduleSvc, nil, testMetrics, logger.NewLogger(nil),
	)

	slot := futureSlot()
	require.NoError(t, aptRepo.Create(context.Background(), &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctor.ID,
		Date:      slot,
		Status:    model.AppointmentStatusPending,
	}))

	ident := &model.Identity{Subject: patient.Subject, Role: model.RoleTypePatient}
	_, err := svc.Book(context.Background(), ident, &model.BookAppointmentRequest{
		DoctorID: doctor.ID,
		Date:     slot,
		Reason:   "checkup",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSlotUnavailable))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	conflict, ok := appErr.Details.(errors.SlotConflict)
	require.True(t, ok)
	assert.Equal(t, "Dr. Okafor", conflict.DoctorName)
	assert.True(t, conflict.AppointmentTime.Equal(slot))
}

func TestBookInactiveDoctor(t *testing.T) {
	f := newFixture(t)

	pending := &model.Doctor{
		Subject: uuid.New(),
		Name:    "Dr. New",
		Email:   "new@clinic.local",
		Status:  model.DoctorStatusPending,
	}
	require.NoError(t, f.docRepo.Create(context.Background(), pending))

	_, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: pending.ID,
		Date:     futureSlot(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "checkup",
	})
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(context.Background(), f.docIdent, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	record, err := f.svc.Complete(context.Background(), f.docIdent, apt.ID, &model.ConsultationRequest{
		Symptoms:  "itching",
		Diagnosis: "contact dermatitis",
		Prescription: []model.Prescription{
			{Medicine: "hydrocortisone", Dosage: "1%", Instructions: "apply twice daily"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, apt.ID, record.AppointmentID)
	assert.NotEqual(t, uuid.Nil, record.ID)

	stored := f.aptRepo.RecordFor(apt.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "contact dermatitis", stored.Diagnosis)

	final, err := f.svc.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, final.Status)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "checkup",
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), f.docIdent, apt.ID, &model.ConsultationRequest{
		Symptoms:  "cough",
		Diagnosis: "cold",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	// No record may exist after a failed completion.
	assert.Nil(t, f.aptRepo.RecordFor(apt.ID))
}

func TestCompleteValidatesConsultation(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "checkup",
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), f.docIdent, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), f.docIdent, apt.ID, &model.ConsultationRequest{
		Diagnosis: "cold",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	_, err = f.svc.Complete(context.Background(), f.docIdent, apt.ID, &model.ConsultationRequest{
		Symptoms: "cough",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	assert.Nil(t, f.aptRepo.RecordFor(apt.ID))
}

func TestTerminalStatesReject(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "checkup",
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), f.docIdent, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), f.docIdent, apt.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))

	_, err = f.svc.Cancel(context.Background(), f.docIdent, apt.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}

func TestTransitionForeignDoctor(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     futureSlot(),
		Reason:   "checkup",
	})
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), &model.Identity{Subject: uuid.New(), Role: model.RoleTypeDoctor}, apt.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrProfileNotFound))
}

func TestCancelledSlotRebookable(t *testing.T) {
	f := newFixture(t)
	slot := futureSlot()

	apt, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     slot,
		Reason:   "checkup",
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), f.docIdent, apt.ID)
	require.NoError(t, err)

	again, err := f.svc.Book(context.Background(), f.ident, &model.BookAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     slot,
		Reason:   "second try",
	})
	require.NoError(t, err)
	assert.NotEqual(t, apt.ID, again.ID)
}
