package model

import (
	"github.com/google/uuid"
)

// Identity is the resolved caller identity for a request. It is threaded
// explicitly through every service operation instead of being read from
// ambient session state, so the core stays testable without a real auth
// provider.
type Identity struct {
	Subject uuid.UUID
	Email   string
	Role    string
}

const (
	RoleTypePatient    = "patient"
	RoleTypeDoctor     = "doctor"
	RoleTypeAdmin      = "admin"
	RoleTypeSuperAdmin = "superadmin"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=patient doctor admin superadmin"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
