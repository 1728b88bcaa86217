package models

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is the proof of completion attached to an application
type Certificate struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	ApplicationID   uuid.UUID         `json:"applicationId" db:"application_id"`
	StudentID       uuid.UUID         `json:"studentId" db:"student_id"`
	InternshipID    uuid.UUID         `json:"internshipId" db:"internship_id"`
	CertificateURL  string            `json:"certificateUrl" db:"certificate_url"` // object store key
	Status          CertificateStatus `json:"status" db:"status"`
	RejectionReason *string           `json:"rejectionReason,omitempty" db:"rejection_reason"`
	UploadedAt      time.Time         `json:"uploadedAt" db:"uploaded_at"`
	VerifiedBy      *uuid.UUID        `json:"verifiedBy,omitempty" db:"verified_by"`
	VerifiedAt      *time.Time        `json:"verifiedAt,omitempty" db:"verified_at"`
}

// StorageCleanup flags an object store key that no row references
type StorageCleanup struct {
	ID          int64      `db:"id"`
	ObjectKey   string     `db:"object_key"`
	Reason      string     `db:"reason"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
