package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

// SlotPolicy describes a doctor's working-hours grid. Slots start every
// IntervalMinutes from StartHour:00 up to but excluding EndHour:00.
type SlotPolicy struct {
	StartHour       int
	EndHour         int
	IntervalMinutes int
}

// DefaultSlotPolicy is the clinic-wide 9:00-17:00 grid with 30 minute slots.
var DefaultSlotPolicy = SlotPolicy{
	StartHour:       9,
	EndHour:         17,
	IntervalMinutes: 30,
}

// ConflictResult reports whether a (doctor, timestamp) pair is taken and, if
// so, the details shown to the user.
type ConflictResult struct {
	HasConflict     bool      `json:"has_conflict"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	AppointmentTime time.Time `json:"appointment_time,omitempty"`
}

type Service struct {
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	policy          SlotPolicy
	cache           *gocache.Cache
}

func NewService(appointmentRepo repository.AppointmentRepository, doctorRepo repository.DoctorRepository, policy SlotPolicy) *Service {
	if policy.IntervalMinutes <= 0 {
		policy = DefaultSlotPolicy
	}
	return &Service{
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		policy:          policy,
		// Availability is a snapshot anyway; a short TTL keeps repeated
		// slot-picker reloads off the database without changing semantics.
		cache: gocache.New(5*time.Second, time.Minute),
	}
}

// GenerateSlots expands the policy over the calendar day starting at the
// given local midnight. Pure and deterministic. The slot at EndHour:00 is
// excluded.
func GenerateSlots(policy SlotPolicy, day time.Time) []time.Time {
	start := day.Add(time.Duration(policy.StartHour) * time.Hour)
	end := day.Add(time.Duration(policy.EndHour) * time.Hour)
	interval := time.Duration(policy.IntervalMinutes) * time.Minute

	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(interval) {
		slots = append(slots, t)
	}
	return slots
}

// AvailableSlots returns the candidate slots for the doctor's day minus the
// instants held by non-cancelled appointments. The result is a snapshot: two
// callers can both see a slot as free, and only the booking transaction
// arbitrates who gets it.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error) {
	cacheKey := fmt.Sprintf("avail:%s:%d", doctorID, day.Unix())
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]time.Time), nil
	}

	appointments, err := s.appointmentRepo.ListForDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	taken := make(map[int64]struct{}, len(appointments))
	for _, apt := range appointments {
		if apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		taken[apt.Date.Unix()] = struct{}{}
	}

	available := make([]time.Time, 0)
	for _, slot := range GenerateSlots(s.policy, day) {
		if _, ok := taken[slot.Unix()]; ok {
			continue
		}
		available = append(available, slot)
	}

	s.cache.Set(cacheKey, available, gocache.DefaultExpiration)
	return available, nil
}

// CheckConflict reports whether a non-cancelled appointment occupies the
// exact instant. Advisory only: the booking transaction re-checks at write
// time under the store's uniqueness guarantee.
func (s *Service) CheckConflict(ctx context.Context, doctorID uuid.UUID, ts time.Time) (*ConflictResult, error) {
	existing, err := s.appointmentRepo.FindAtSlot(ctx, doctorID, ts)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return &ConflictResult{HasConflict: false}, nil
		}
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	return &ConflictResult{
		HasConflict:     true,
		DoctorName:      doctor.Name,
		AppointmentTime: existing.Date,
	}, nil
}

// Policy returns the slot policy the service was configured with.
func (s *Service) Policy() SlotPolicy {
	return s.policy
}
