package models

import (
	"time"

	"github.com/google/uuid"
)

// Application is a student's claim on one internship
type Application struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	StudentID    uuid.UUID         `json:"studentId" db:"student_id"`
	InternshipID uuid.UUID         `json:"internshipId" db:"internship_id"`
	Status       ApplicationStatus `json:"status" db:"status"`
	AppliedAt    time.Time         `json:"appliedAt" db:"applied_at"`
	StartDate    *time.Time        `json:"startDate,omitempty" db:"start_date"`
	EndDate      *time.Time        `json:"endDate,omitempty" db:"end_date"`

	Internship *Internship `json:"internship,omitempty"` // Relation, no db tag
	Student    *Profile    `json:"student,omitempty"`    // Relation, no db tag
	// Certificate is the canonical (latest uploaded) certificate, nil when none
	Certificate *Certificate `json:"certificate,omitempty"`
}
