package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Profile is the local projection of a user managed by the profile service.
type Profile struct {
	ID          string
	Role        Role
	DisplayName string
	Complete    bool
	UpdatedAt   time.Time
}
