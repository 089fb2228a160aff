package model

import (
	"time"

	"github.com/google/uuid"
)

type VitalType string

const (
	VitalTypeBP        VitalType = "bp"
	VitalTypeGlucose   VitalType = "glucose"
	VitalTypeWeight    VitalType = "weight"
	VitalTypeHeartRate VitalType = "heart_rate"
)

// Vital is one point in a patient's append-only vitals time series.
type Vital struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	Type       VitalType `db:"type" json:"type"`
	Value      string    `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	RecordedBy uuid.UUID `db:"recorded_by" json:"recorded_by"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

type LogVitalRequest struct {
	Type  VitalType `json:"type" binding:"required,oneof=bp glucose weight heart_rate"`
	Value string    `json:"value" binding:"required,max=50"`
	Unit  string    `json:"unit" binding:"required,max=20"`
}

type VitalFilters struct {
	Type  VitalType
	Since time.Time
	Until time.Time
}
