package model

import (
	"github.com/google/uuid"
)

type DoctorStatus string

const (
	DoctorStatusActive   DoctorStatus = "active"
	DoctorStatusInactive DoctorStatus = "inactive"
	DoctorStatusPending  DoctorStatus = "pending"
)

// SpecialtyGeneral is the default specialty; it opts a new doctor out of the
// specialty-matched pass of onboarding redistribution.
const SpecialtyGeneral = "general"

type Doctor struct {
	Base
	Subject      uuid.UUID    `db:"subject" json:"subject"`
	Name         string       `db:"name" json:"name"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Specialty    string       `db:"specialty" json:"specialty"`
	Status       DoctorStatus `db:"status" json:"status"`
	Role         string       `db:"role" json:"role"`
}

type RegisterDoctorRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Specialty string `json:"specialty" binding:"required,max=100"`
}

type UpdateDoctorRequest struct {
	Name      *string       `json:"name"`
	Specialty *string       `json:"specialty"`
	Status    *DoctorStatus `json:"status"`
	Role      *string       `json:"role"`
}

type DoctorFilters struct {
	Status    DoctorStatus
	Specialty string
}
