package models

import (
	"time"

	"github.com/google/uuid"
)

// Internship is a posting created by faculty or admin for one department
type Internship struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CompanyName    string    `json:"companyName" db:"company_name" example:"Acme Corp"`
	Title          string    `json:"title" db:"title" example:"Backend Intern"`
	Domain         string    `json:"domain" db:"domain" example:"Web Development"`
	Duration       string    `json:"duration" db:"duration" example:"3 months"`
	Location       *string   `json:"location,omitempty" db:"location"`
	DepartmentID   uuid.UUID `json:"departmentId" db:"department_id"`
	FacultyID      uuid.UUID `json:"facultyId" db:"faculty_id"`
	InternshipLink string    `json:"internshipLink" db:"internship_link"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Stipend        *string   `json:"stipend,omitempty" db:"stipend"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
