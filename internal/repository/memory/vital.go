package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type VitalRepository struct {
	mu     sync.Mutex
	vitals []*model.Vital
}

func NewVitalRepository() *VitalRepository {
	return &VitalRepository{}
}

func (r *VitalRepository) Create(ctx context.Context, vital *model.Vital) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vital.ID == uuid.Nil {
		vital.ID = uuid.New()
	}
	copy := *vital
	r.vitals = append(r.vitals, &copy)
	return nil
}

func (r *VitalRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.VitalFilters) ([]*model.Vital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Vital
	for _, v := range r.vitals {
		if v.PatientID != patientID {
			continue
		}
		if filters != nil {
			if filters.Type != "" && v.Type != filters.Type {
				continue
			}
			if !filters.Since.IsZero() && v.RecordedAt.Before(filters.Since) {
				continue
			}
			if !filters.Until.IsZero() && v.RecordedAt.After(filters.Until) {
				continue
			}
		}
		copy := *v
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

type MedicalRecordRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.MedicalRecord
}

func NewMedicalRecordRepository() *MedicalRecordRepository {
	return &MedicalRecordRepository{records: make(map[uuid.UUID]*model.MedicalRecord)}
}

// Put seeds a record; production records are only ever written by appointment
// completion.
func (r *MedicalRecordRepository) Put(record *model.MedicalRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	copy := *record
	r.records[record.ID] = &copy
}

func (r *MedicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	copy := *rec
	return &copy, nil
}

func (r *MedicalRecordRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			copy := *rec
			return &copy, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (r *MedicalRecordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.MedicalRecord
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			copy := *rec
			out = append(out, &copy)
		}
	}
	return out, nil
}
