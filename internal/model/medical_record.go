package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MedicalRecord is created exactly once, atomically with the completion of
// its appointment, and is immutable afterwards.
type MedicalRecord struct {
	Base
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	AppointmentID    uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	Symptoms         string          `db:"symptoms" json:"symptoms"`
	Diagnosis        string          `db:"diagnosis" json:"diagnosis"`
	PrescriptionJSON json.RawMessage `db:"prescription" json:"-"`
	Prescription     []Prescription  `db:"-" json:"prescription"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
}

type Prescription struct {
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
}

// MarshalPrescription serializes the prescription list for storage.
func (r *MedicalRecord) MarshalPrescription() error {
	if r.Prescription == nil {
		r.PrescriptionJSON = json.RawMessage("[]")
		return nil
	}
	data, err := json.Marshal(r.Prescription)
	if err != nil {
		return fmt.Errorf("failed to marshal prescription: %w", err)
	}
	r.PrescriptionJSON = data
	return nil
}

// UnmarshalPrescription hydrates the prescription list after a read.
func (r *MedicalRecord) UnmarshalPrescription() error {
	if len(r.PrescriptionJSON) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.PrescriptionJSON, &r.Prescription); err != nil {
		return fmt.Errorf("failed to unmarshal prescription: %w", err)
	}
	return nil
}
