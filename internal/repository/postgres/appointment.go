package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

const appointmentColumns = `id, patient_id, doctor_id, date, status, reason, notes, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, date,
			status, reason, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		// The partial unique index on (doctor_id, date) WHERE status <>
		// 'cancelled' is what makes the availability re-check and the insert
		// a single atomic unit. A violation means we lost the race.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return repository.ErrDuplicateSlot
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, mapNoRows(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, status = $2, reason = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNoRows
	}

	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND date < $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY date ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND date >= $2
		AND date < $3
		ORDER BY date ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, doctorID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAtSlot(ctx context.Context, doctorID uuid.UUID, date time.Time) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND date = $2
		AND status <> 'cancelled'
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, doctorID, date); err != nil {
		return nil, mapNoRows(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListFuture(ctx context.Context, from time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE date >= $1
		AND status NOT IN ('completed', 'cancelled')
		ORDER BY date ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, from); err != nil {
		return nil, fmt.Errorf("failed to list future appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Complete(ctx context.Context, appointment *model.Appointment, record *model.MedicalRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		appointment.Status = model.AppointmentStatusCompleted
		appointment.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, updated_at = $2
			WHERE id = $3 AND status = 'confirmed'
		`, appointment.Status, appointment.UpdatedAt, appointment.ID)
		if err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNoRows
		}

		record.ID = uuid.New()
		record.CreatedAt = time.Now()
		record.UpdatedAt = record.CreatedAt

		_, err = tx.ExecContext(ctx, `
			INSERT INTO medical_records (
				id, patient_id, doctor_id, appointment_id,
				symptoms, diagnosis, prescription, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			record.ID,
			record.PatientID,
			record.DoctorID,
			record.AppointmentID,
			record.Symptoms,
			record.Diagnosis,
			record.PrescriptionJSON,
			record.Notes,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create medical record: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Reassign(ctx context.Context, id, newDoctorID uuid.UUID, auditNote string) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1,
			notes = CASE WHEN notes = '' THEN $2 ELSE notes || E'\n' || $2 END,
			updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, newDoctorID, auditNote, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reassign appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNoRows
	}
	return nil
}
