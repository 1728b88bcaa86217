package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/lifecycle"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/status"
	"github.com/yigit/internportal/internal/pkg/validation"
)

// UploadCertificateForm is the multipart form of a certificate upload
type UploadCertificateForm struct {
	StartDate string `form:"start_date" binding:"required,isodate"`
	EndDate   string `form:"end_date" binding:"required,isodate"`
}

// CertificateResponse represents a certificate
type CertificateResponse struct {
	ID              uuid.UUID  `json:"id"`
	ApplicationID   uuid.UUID  `json:"applicationId"`
	StudentID       uuid.UUID  `json:"studentId"`
	InternshipID    uuid.UUID  `json:"internshipId"`
	CertificateURL  string     `json:"certificateUrl"`
	Status          string     `json:"status" enums:"pending,verified,rejected"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	UploadedAt      time.Time  `json:"uploadedAt"`
	VerifiedBy      *uuid.UUID `json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time `json:"verifiedAt,omitempty"`
}

// NewCertificateResponse maps a certificate
func NewCertificateResponse(c *models.Certificate) *CertificateResponse {
	if c == nil {
		return nil
	}
	return &CertificateResponse{
		ID:              c.ID,
		ApplicationID:   c.ApplicationID,
		StudentID:       c.StudentID,
		InternshipID:    c.InternshipID,
		CertificateURL:  c.CertificateURL,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		UploadedAt:      c.UploadedAt,
		VerifiedBy:      c.VerifiedBy,
		VerifiedAt:      c.VerifiedAt,
	}
}

// ApplicationResponse is an application with its canonical certificate and projected status
type ApplicationResponse struct {
	ID           uuid.UUID            `json:"id"`
	StudentID    uuid.UUID            `json:"studentId"`
	InternshipID uuid.UUID            `json:"internshipId"`
	Status       string               `json:"status" enums:"pending,accepted,approved,completed,rejected"`
	AppliedAt    time.Time            `json:"appliedAt"`
	StartDate    *string              `json:"startDate,omitempty" example:"2024-01-01"`
	EndDate      *string              `json:"endDate,omitempty" example:"2024-03-01"`
	State        string               `json:"state" example:"ACTIVE_WITH_CERT"`
	Projected    status.Projection    `json:"projected"`
	Internship   *InternshipResponse  `json:"internship,omitempty"`
	Student      *ProfileResponse     `json:"student,omitempty"`
	Certificate  *CertificateResponse `json:"certificate,omitempty"`
}

// ApplicationListResponse is a list of applications with its aggregate counts
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Counts       status.Counts         `json:"counts"`
}

// NewApplicationResponse maps an application with its derived state and projection
func NewApplicationResponse(a *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:           a.ID,
		StudentID:    a.StudentID,
		InternshipID: a.InternshipID,
		Status:       string(a.Status),
		AppliedAt:    a.AppliedAt,
		StartDate:    formatDate(a.StartDate),
		EndDate:      formatDate(a.EndDate),
		State:        string(lifecycle.Derive(a, a.Certificate)),
		Projected:    status.ProjectApplication(*a),
		Certificate:  NewCertificateResponse(a.Certificate),
	}
	if a.Internship != nil {
		i := NewInternshipResponse(a.Internship)
		resp.Internship = &i
	}
	if a.Student != nil {
		p := NewProfileResponse(a.Student)
		resp.Student = &p
	}
	return resp
}

// NewApplicationListResponse maps applications and partitions them by projected bucket
func NewApplicationListResponse(apps []models.Application) ApplicationListResponse {
	resp := ApplicationListResponse{
		Applications: make([]ApplicationResponse, 0, len(apps)),
		Counts:       status.Partition(apps),
	}
	for i := range apps {
		resp.Applications = append(resp.Applications, NewApplicationResponse(&apps[i]))
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(validation.DateLayout)
	return &s
}

// SignedURLResponse carries a time-limited download link
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RejectCertificateRequest carries the mandatory rejection reason
type RejectCertificateRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// CertificateCentreEntry is one verified certificate in the department centre
type CertificateCentreEntry struct {
	Certificate     CertificateResponse `json:"certificate"`
	StudentName     string              `json:"studentName"`
	StudentEmail    string              `json:"studentEmail"`
	InternshipTitle string              `json:"internshipTitle"`
	DownloadURL     string              `json:"downloadUrl,omitempty"`
}

// CertificateCentreGroup groups verified certificates by company
type CertificateCentreGroup struct {
	CompanyName  string                   `json:"companyName"`
	Certificates []CertificateCentreEntry `json:"certificates"`
}
