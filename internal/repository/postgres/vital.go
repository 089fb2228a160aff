package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type vitalRepository struct {
	BaseRepository
}

func NewVitalRepository(db *sqlx.DB) repository.VitalRepository {
	return &vitalRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *vitalRepository) Create(ctx context.Context, vital *model.Vital) error {
	query := `
		INSERT INTO vitals (
			id, patient_id, type, value, unit, recorded_by, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	vital.ID = uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		vital.ID,
		vital.PatientID,
		vital.Type,
		vital.Value,
		vital.Unit,
		vital.RecordedBy,
		vital.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vital: %w", err)
	}
	return nil
}

func (r *vitalRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.VitalFilters) ([]*model.Vital, error) {
	query := `
		SELECT id, patient_id, type, value, unit, recorded_by, recorded_at
		FROM vitals
		WHERE patient_id = $1
	`
	args := []interface{}{patientID}
	argCount := 2

	if filters != nil && filters.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argCount)
		args = append(args, filters.Type)
		argCount++
	}
	if filters != nil && !filters.Since.IsZero() {
		query += fmt.Sprintf(" AND recorded_at >= $%d", argCount)
		args = append(args, filters.Since)
		argCount++
	}
	if filters != nil && !filters.Until.IsZero() {
		query += fmt.Sprintf(" AND recorded_at < $%d", argCount)
		args = append(args, filters.Until)
		argCount++
	}

	query += " ORDER BY recorded_at DESC"

	var vitals []*model.Vital
	if err := r.db.SelectContext(ctx, &vitals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list vitals: %w", err)
	}
	return vitals, nil
}
