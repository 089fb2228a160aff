// Package memory provides in-memory repository implementations with the same
// contracts as the postgres ones, including the one-live-appointment-per-slot
// guarantee. The service tests run against these.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type DoctorRepository struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*model.Doctor
}

func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	copy := *doctor
	r.doctors[doctor.ID] = &copy
	return nil
}

func (r *DoctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copy := *doc
	return &copy, nil
}

func (r *DoctorRepository) GetBySubject(ctx context.Context, subject uuid.UUID) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.doctors {
		if doc.Subject == subject {
			copy := *doc
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.doctors {
		if doc.Email == email {
			copy := *doc
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *DoctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[doctor.ID]; !ok {
		return repository.ErrNoRows
	}
	copy := *doctor
	r.doctors[doctor.ID] = &copy
	return nil
}

func (r *DoctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Doctor
	for _, doc := range r.doctors {
		if filters != nil {
			if filters.Status != "" && doc.Status != filters.Status {
				continue
			}
			if filters.Specialty != "" && doc.Specialty != filters.Specialty {
				continue
			}
		}
		copy := *doc
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *DoctorRepository) ListActive(ctx context.Context, exclude uuid.UUID) ([]*model.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Doctor
	for _, doc := range r.doctors {
		if doc.ID == exclude || doc.Status != model.DoctorStatusActive {
			continue
		}
		copy := *doc
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type PatientRepository struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if patient.ID == uuid.Nil {
		patient.ID = uuid.New()
	}
	copy := *patient
	r.patients[patient.ID] = &copy
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copy := *p
	return &copy, nil
}

func (r *PatientRepository) GetBySubject(ctx context.Context, subject uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Subject == subject {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *PatientRepository) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Email == email {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patient.ID]; !ok {
		return repository.ErrNoRows
	}
	copy := *patient
	r.patients[patient.ID] = &copy
	return nil
}

func (r *PatientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Patient
	for _, p := range r.patients {
		copy := *p
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type AppointmentRepository struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	records      map[uuid.UUID]*model.MedicalRecord
}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		appointments: make(map[uuid.UUID]*model.Appointment),
		records:      make(map[uuid.UUID]*model.MedicalRecord),
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.appointments {
		if apt.DoctorID == appointment.DoctorID &&
			apt.Date.Equal(appointment.Date) &&
			apt.Status != model.AppointmentStatusCancelled {
			return repository.ErrDuplicateSlot
		}
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	copy := *appointment
	r.appointments[appointment.ID] = &copy
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copy := *apt
	return &copy, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[appointment.ID]; !ok {
		return repository.ErrNoRows
	}
	appointment.UpdatedAt = time.Now()
	copy := *appointment
	r.appointments[appointment.ID] = &copy
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if filters != nil {
			if filters.DoctorID != uuid.Nil && apt.DoctorID != filters.DoctorID {
				continue
			}
			if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
				continue
			}
			if filters.Status != "" && apt.Status != filters.Status {
				continue
			}
		}
		copy := *apt
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *AppointmentRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := day.Add(24 * time.Hour)
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.DoctorID != doctorID {
			continue
		}
		if apt.Date.Before(day) || !apt.Date.Before(next) {
			continue
		}
		copy := *apt
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *AppointmentRepository) FindAtSlot(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.appointments {
		if apt.DoctorID == doctorID &&
			apt.Date.Equal(date) &&
			apt.Status != model.AppointmentStatusCancelled {
			copy := *apt
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *AppointmentRepository) ListFuture(ctx context.Context, from time.Time) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.Date.Before(from) {
			continue
		}
		if apt.Status == model.AppointmentStatusCompleted || apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		copy := *apt
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *AppointmentRepository) Complete(ctx context.Context, appointment *model.Appointment, record *model.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appointments[appointment.ID]
	if !ok || stored.Status != model.AppointmentStatusConfirmed {
		return repository.ErrNoRows
	}
	stored.Status = model.AppointmentStatusCompleted
	stored.UpdatedAt = time.Now()
	appointment.Status = model.AppointmentStatusCompleted

	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	copy := *record
	r.records[appointment.ID] = &copy
	return nil
}

func (r *AppointmentRepository) Reassign(ctx context.Context, id, newDoctorID uuid.UUID, auditNote string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return repository.ErrNoRows
	}
	apt.DoctorID = newDoctorID
	if apt.Notes == "" {
		apt.Notes = auditNote
	} else {
		apt.Notes = strings.Join([]string{apt.Notes, auditNote}, "\n")
	}
	apt.UpdatedAt = time.Now()
	return nil
}

// RecordFor returns the medical record created when the appointment was
// completed, or nil.
func (r *AppointmentRepository) RecordFor(appointmentID uuid.UUID) *model.MedicalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[appointmentID]
	if !ok {
		return nil
	}
	copy := *rec
	return &copy
}

type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *event
	r.events = append(r.events, &copy)
	return nil
}

func (r *OutboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, ev := range r.events {
		if ev.Status != model.OutboxStatusPending {
			continue
		}
		copy := *ev
		out = append(out, &copy)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.Status = model.OutboxStatusProcessed
			ev.ProcessedAt = &now
			return nil
		}
	}
	return repository.ErrNoRows
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id {
			ev.Status = model.OutboxStatusFailed
			ev.ErrorMessage = &errMsg
			ev.RetryCount++
			return nil
		}
	}
	return repository.ErrNoRows
}

// Events returns a snapshot of every event written so far.
func (r *OutboxRepository) Events() []*model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.OutboxEvent, 0, len(r.events))
	for _, ev := range r.events {
		copy := *ev
		out = append(out, &copy)
	}
	return out
}
