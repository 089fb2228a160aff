package onboarding_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/onboarding"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("clinic_test", "onboarding")

type world struct {
	svc     *onboarding.Service
	aptRepo *memory.AppointmentRepository
	docRepo *memory.DoctorRepository
}

func newWorld(t *testing.T) *world {
	t.Helper()
	aptRepo := memory.NewAppointmentRepository()
	docRepo := memory.NewDoctorRepository()
	return &world{
		svc:     onboarding.NewService(aptRepo, docRepo, testMetrics, logger.NewLogger(nil)),
		aptRepo: aptRepo,
		docRepo: docRepo,
	}
}

func (w *world) addDoctor(t *testing.T, name, specialty string) *model.Doctor {
	t.Helper()
	doc := &model.Doctor{
		Subject:   uuid.New(),
		Name:      name,
		Email:     name + "@clinic.local",
		Specialty: specialty,
		Status:    model.DoctorStatusActive,
	}
	require.NoError(t, w.docRepo.Create(context.Background(), doc))
	return doc
}

// addAppointments books n future appointments for the doctor, one per day
// starting tomorrow at 10:00.
func (w *world) addAppointments(t *testing.T, doctorID uuid.UUID, n int) []*model.Appointment {
	t.Helper()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	out := make([]*model.Appointment, 0, n)
	for i := 0; i < n; i++ {
		apt := &model.Appointment{
			PatientID: uuid.New(),
			DoctorID:  doctorID,
			Date:      base.Add(time.Duration(i) * 24 * time.Hour),
			Status:    model.AppointmentStatusConfirmed,
		}
		require.NoError(t, w.aptRepo.Create(context.Background(), apt))
		out = append(out, apt)
	}
	return out
}

func (w *world) countFor(t *testing.T, doctorID uuid.UUID) int {
	t.Helper()
	apts, err := w.aptRepo.List(context.Background(), &model.AppointmentFilters{DoctorID: doctorID})
	require.NoError(t, err)
	return len(apts)
}

func TestRedistributeNoExistingDoctors(t *testing.T) {
	w := newWorld(t)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	err := w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty)
	require.NoError(t, err)
	assert.Zero(t, w.countFor(t, newDoc.ID))
}

func TestRedistributeLowWorkloadUntouched(t *testing.T) {
	w := newWorld(t)
	existing := w.addDoctor(t, "resident", model.SpecialtyGeneral)
	w.addAppointments(t, existing.ID, 2)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty))

	assert.Equal(t, 2, w.countFor(t, existing.ID))
	assert.Zero(t, w.countFor(t, newDoc.ID))
}

func TestRedistributeTakesShareFromBusiest(t *testing.T) {
	w := newWorld(t)
	busy := w.addDoctor(t, "busy", model.SpecialtyGeneral)
	quiet := w.addDoctor(t, "quiet", model.SpecialtyGeneral)
	busyApts := w.addAppointments(t, busy.ID, 10)
	w.addAppointments(t, quiet.ID, 1)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty))

	// floor(10 * 0.2) = 2 moves, earliest first; the quiet doctor is untouched.
	assert.Equal(t, 8, w.countFor(t, busy.ID))
	assert.Equal(t, 1, w.countFor(t, quiet.ID))
	assert.Equal(t, 2, w.countFor(t, newDoc.ID))

	moved, err := w.aptRepo.Get(context.Background(), busyApts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, newDoc.ID, moved.DoctorID)
	moved2, err := w.aptRepo.Get(context.Background(), busyApts[1].ID)
	require.NoError(t, err)
	assert.Equal(t, newDoc.ID, moved2.DoctorID)
}

func TestRedistributeMovesAtLeastOne(t *testing.T) {
	w := newWorld(t)
	busy := w.addDoctor(t, "busy", model.SpecialtyGeneral)
	w.addAppointments(t, busy.ID, 3)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty))

	// floor(3 * 0.2) = 0, bumped to the minimum of 1.
	assert.Equal(t, 2, w.countFor(t, busy.ID))
	assert.Equal(t, 1, w.countFor(t, newDoc.ID))
}

func TestRedistributeAuditNote(t *testing.T) {
	w := newWorld(t)
	busy := w.addDoctor(t, "busy", model.SpecialtyGeneral)
	apts := w.addAppointments(t, busy.ID, 10)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty))

	moved, err := w.aptRepo.Get(context.Background(), apts[0].ID)
	require.NoError(t, err)
	assert.Contains(t, moved.Notes, "[rebalanced ")
	assert.Contains(t, moved.Notes, "reassigned to new doctor]")

	untouched, err := w.aptRepo.Get(context.Background(), apts[5].ID)
	require.NoError(t, err)
	assert.Empty(t, untouched.Notes)
}

func TestRedistributeSpecialtyBonus(t *testing.T) {
	w := newWorld(t)
	peer := w.addDoctor(t, "cardio-peer", "cardiology")
	w.addAppointments(t, peer.ID, 10)
	newDoc := w.addDoctor(t, "cardio-new", "cardiology")

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, "cardiology"))

	// Workload pass moves 2, specialty pass pulls at most 5 more from the
	// same-specialty peer with nothing counted twice.
	assert.Equal(t, 7, w.countFor(t, newDoc.ID))
	assert.Equal(t, 3, w.countFor(t, peer.ID))
}

func TestRedistributeGeneralSkipsSpecialtyPass(t *testing.T) {
	w := newWorld(t)
	peer := w.addDoctor(t, "gp", model.SpecialtyGeneral)
	w.addAppointments(t, peer.ID, 10)
	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, model.SpecialtyGeneral))

	assert.Equal(t, 2, w.countFor(t, newDoc.ID))
	assert.Equal(t, 8, w.countFor(t, peer.ID))
}

func TestRedistributeSpecialtyOnlyFromPeers(t *testing.T) {
	w := newWorld(t)
	derm := w.addDoctor(t, "derm", "dermatology")
	w.addAppointments(t, derm.ID, 6)
	cardio := w.addDoctor(t, "cardio", "cardiology")
	w.addAppointments(t, cardio.ID, 2)
	newDoc := w.addDoctor(t, "cardio-new", "cardiology")

	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, "cardiology"))

	// Workload pass relieves the dermatologist (busiest). Specialty pass only
	// considers the cardiologist's two appointments.
	assert.Equal(t, 5, w.countFor(t, derm.ID))
	assert.Equal(t, 0, w.countFor(t, cardio.ID))
	assert.Equal(t, 3, w.countFor(t, newDoc.ID))
}

func TestRedistributeIgnoresPastAndTerminal(t *testing.T) {
	w := newWorld(t)
	busy := w.addDoctor(t, "busy", model.SpecialtyGeneral)

	// Past appointment, outside ListFuture's window.
	past := &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  busy.ID,
		Date:      time.Now().Add(-48 * time.Hour),
		Status:    model.AppointmentStatusCompleted,
	}
	require.NoError(t, w.aptRepo.Create(context.Background(), past))
	w.addAppointments(t, busy.ID, 2)

	newDoc := w.addDoctor(t, "newcomer", model.SpecialtyGeneral)
	require.NoError(t, w.svc.Redistribute(context.Background(), newDoc.ID, newDoc.Specialty))

	// Future workload is 2, at the floor, so nothing moves.
	assert.Zero(t, w.countFor(t, newDoc.ID))
}
