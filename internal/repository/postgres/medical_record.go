package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

// Medical records are only ever inserted inside the appointment completion
// transaction, so this repository is read-only.
type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(db *sqlx.DB) repository.MedicalRecordRepository {
	return &medicalRecordRepository{BaseRepository: NewBaseRepository(db)}
}

const medicalRecordColumns = `id, patient_id, doctor_id, appointment_id, symptoms, diagnosis, prescription, notes, created_at, updated_at`

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records WHERE id = $1`

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, mapNoRows(err)
	}
	if err := record.UnmarshalPrescription(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records WHERE appointment_id = $1`

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, appointmentID); err != nil {
		return nil, mapNoRows(err)
	}
	if err := record.UnmarshalPrescription(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `
		SELECT ` + medicalRecordColumns + `
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var records []*model.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	for _, record := range records {
		if err := record.UnmarshalPrescription(); err != nil {
			return nil, err
		}
	}
	return records, nil
}
