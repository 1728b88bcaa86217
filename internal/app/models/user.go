package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile defines the user model based on the 'profiles' table.
// ID is the identity provider subject.
type Profile struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email" example:"student@college.edu"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	FullName       string     `json:"fullName" db:"full_name" example:"Asha Rao"`
	Role           RoleType   `json:"role" db:"role" example:"student"`
	DepartmentID   *uuid.UUID `json:"departmentId,omitempty" db:"department_id"`
	Batch          *string    `json:"batch,omitempty" db:"batch" example:"2021-2025"`
	Phone          *string    `json:"phone,omitempty" db:"phone"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	Skills         []string   `json:"skills" db:"skills"`
	ResumeURL      *string    `json:"resumeUrl,omitempty" db:"resume_url"`
	EmailConfirmed bool       `json:"emailConfirmed" db:"email_confirmed"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`

	Department *Department `json:"department,omitempty"` // Relation, no db tag
}

// InDepartment reports whether the profile belongs to the given department
func (p *Profile) InDepartment(departmentID *uuid.UUID) bool {
	if p == nil || p.DepartmentID == nil || departmentID == nil {
		return false
	}
	return *p.DepartmentID == *departmentID
}

// RefreshToken is a row of the refresh_tokens table
type RefreshToken struct {
	Token      string    `db:"token"`
	UserID     uuid.UUID `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}
