package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/schedule"
)

func day(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
}

func TestGenerateSlots(t *testing.T) {
	slots := schedule.GenerateSlots(schedule.DefaultSlotPolicy, day(t))

	require.Len(t, slots, 16)
	assert.Equal(t, day(t).Add(9*time.Hour), slots[0])
	assert.Equal(t, day(t).Add(16*time.Hour+30*time.Minute), slots[15])

	// EndHour itself is never a slot.
	for _, slot := range slots {
		assert.True(t, slot.Before(day(t).Add(17*time.Hour)))
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	first := schedule.GenerateSlots(schedule.DefaultSlotPolicy, day(t))
	second := schedule.GenerateSlots(schedule.DefaultSlotPolicy, day(t))
	assert.Equal(t, first, second)
}

func TestGenerateSlotsCustomPolicy(t *testing.T) {
	policy := schedule.SlotPolicy{StartHour: 8, EndHour: 12, IntervalMinutes: 60}
	slots := schedule.GenerateSlots(policy, day(t))

	require.Len(t, slots, 4)
	assert.Equal(t, day(t).Add(8*time.Hour), slots[0])
	assert.Equal(t, day(t).Add(11*time.Hour), slots[3])
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	aptRepo := memory.NewAppointmentRepository()
	docRepo := memory.NewDoctorRepository()
	svc := schedule.NewService(aptRepo, docRepo, schedule.DefaultSlotPolicy)

	doctorID := uuid.New()
	booked := day(t).Add(10 * time.Hour)
	require.NoError(t, aptRepo.Create(context.Background(), &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Date:      booked,
		Status:    model.AppointmentStatusConfirmed,
	}))

	slots, err := svc.AvailableSlots(context.Background(), doctorID, day(t))
	require.NoError(t, err)

	assert.Len(t, slots, 15)
	assert.NotContains(t, slots, booked)
}

func TestAvailableSlotsCancelledSlotReappears(t *testing.T) {
	aptRepo := memory.NewAppointmentRepository()
	docRepo := memory.NewDoctorRepository()
	svc := schedule.NewService(aptRepo, docRepo, schedule.DefaultSlotPolicy)

	doctorID := uuid.New()
	slot := day(t).Add(14 * time.Hour)
	require.NoError(t, aptRepo.Create(context.Background(), &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		Date:      slot,
		Status:    model.AppointmentStatusCancelled,
	}))

	slots, err := svc.AvailableSlots(context.Background(), doctorID, day(t))
	require.NoError(t, err)

	assert.Len(t, slots, 16)
	assert.Contains(t, slots, slot)
}

func TestAvailableSlotsOtherDoctorUnaffected(t *testing.T) {
	aptRepo := memory.NewAppointmentRepository()
	docRepo := memory.NewDoctorRepository()
	svc := schedule.NewService(aptRepo, docRepo, schedule.DefaultSlotPolicy)

	busy := uuid.New()
	free := uuid.New()
	require.NoError(t, aptRepo.Create(context.Background(), &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  busy,
		Date:      day(t).Add(9 * time.Hour),
		Status:    model.AppointmentStatusPending,
	}))

	slots, err := svc.AvailableSlots(context.Background(), free, day(t))
	require.NoError(t, err)
	assert.Len(t, slots, 16)
}

func TestCheckConflict(t *testing.T) {
	aptRepo := memory.NewAppointmentRepository()
	docRepo := memory.NewDoctorRepository()
	svc := schedule.NewService(aptRepo, docRepo, schedule.DefaultSlotPolicy)

	doctor := &model.Doctor{
		Subject:   uuid.New(),
		Name:      "Dr. Reyes",
		Email:     "reyes@clinic.local",
		Specialty: "cardiology",
		Status:    model.DoctorStatusActive,
	}
	require.NoError(t, docRepo.Create(context.Background(), doctor))

	slot := day(t).Add(11 * time.Hour)

	result, err := svc.CheckConflict(context.Background(), doctor.ID, slot)
	require.NoError(t, err)
	assert.False(t, result.HasConflict)

	require.NoError(t, aptRepo.Create(context.Background(), &model.Appointment{
		PatientID: uuid.New(),
		DoctorID:  doctor.ID,
		Date:      slot,
		Status:    model.AppointmentStatusPending,
	}))

	result, err = svc.CheckConflict(context.Background(), doctor.ID, slot)
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Equal(t, "Dr. Reyes", result.DoctorName)
	assert.True(t, result.AppointmentTime.Equal(slot))
}
