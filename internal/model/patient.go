package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	Base
	Subject      uuid.UUID  `db:"subject" json:"subject"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Phone        string     `db:"phone" json:"phone"`
	DateOfBirth  *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender       string     `db:"gender" json:"gender,omitempty"`
	Address      string     `db:"address" json:"address,omitempty"`

	// Medical metadata, mutable by the patient's doctor only.
	Allergies         string `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions string `db:"chronic_conditions" json:"chronic_conditions,omitempty"`

	EmergencyContactName  string `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
}

type RegisterPatientRequest struct {
	Name        string     `json:"name" binding:"required,max=255"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	Phone       string     `json:"phone" binding:"max=30"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=male female other"`
}

// UpdatePatientContactRequest covers the fields a patient may change on their
// own profile.
type UpdatePatientContactRequest struct {
	Phone                 *string `json:"phone"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
}

// UpdatePatientMedicalRequest covers the fields only a doctor may change.
type UpdatePatientMedicalRequest struct {
	Allergies         *string `json:"allergies"`
	ChronicConditions *string `json:"chronic_conditions"`
}

type PatientFilters struct {
	SearchTerm string
	Pagination
}
