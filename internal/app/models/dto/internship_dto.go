package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/models"
)

// CreateInternshipRequest represents internship creation data. DepartmentID
// is ignored for faculty callers, who always post to their own department.
type CreateInternshipRequest struct {
	CompanyName    string  `json:"companyName" binding:"required,max=200"`
	Title          string  `json:"title" binding:"required,max=200"`
	Domain         string  `json:"domain" binding:"required,max=100"`
	Duration       string  `json:"duration" binding:"required,max=100"`
	Location       *string `json:"location" binding:"omitempty,max=200"`
	DepartmentID   string  `json:"departmentId" binding:"omitempty,uuid"`
	InternshipLink string  `json:"internshipLink" binding:"required,url"`
	Description    *string `json:"description" binding:"omitempty,max=5000"`
	Stipend        *string `json:"stipend" binding:"omitempty,max=50"`
	IsActive       *bool   `json:"isActive"`
}

// UpdateInternshipRequest patches an internship; nil fields are left as is
type UpdateInternshipRequest struct {
	CompanyName    *string `json:"companyName" binding:"omitempty,min=1,max=200"`
	Title          *string `json:"title" binding:"omitempty,min=1,max=200"`
	Domain         *string `json:"domain" binding:"omitempty,min=1,max=100"`
	Duration       *string `json:"duration" binding:"omitempty,min=1,max=100"`
	Location       *string `json:"location" binding:"omitempty,max=200"`
	InternshipLink *string `json:"internshipLink" binding:"omitempty,url"`
	Description    *string `json:"description" binding:"omitempty,max=5000"`
	Stipend        *string `json:"stipend" binding:"omitempty,max=50"`
	IsActive       *bool   `json:"isActive"`
}

// InternshipResponse represents an internship
type InternshipResponse struct {
	ID             uuid.UUID `json:"id"`
	CompanyName    string    `json:"companyName"`
	Title          string    `json:"title"`
	Domain         string    `json:"domain"`
	Duration       string    `json:"duration"`
	Location       *string   `json:"location,omitempty"`
	DepartmentID   uuid.UUID `json:"departmentId"`
	FacultyID      uuid.UUID `json:"facultyId"`
	InternshipLink string    `json:"internshipLink"`
	Description    *string   `json:"description,omitempty"`
	Stipend        *string   `json:"stipend,omitempty"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewInternshipResponse maps an internship
func NewInternshipResponse(i *models.Internship) InternshipResponse {
	return InternshipResponse{
		ID:             i.ID,
		CompanyName:    i.CompanyName,
		Title:          i.Title,
		Domain:         i.Domain,
		Duration:       i.Duration,
		Location:       i.Location,
		DepartmentID:   i.DepartmentID,
		FacultyID:      i.FacultyID,
		InternshipLink: i.InternshipLink,
		Description:    i.Description,
		Stipend:        i.Stipend,
		IsActive:       i.IsActive,
		CreatedAt:      i.CreatedAt,
	}
}

// InternshipListResponse represents a page of internships
type InternshipListResponse struct {
	Internships []InternshipResponse `json:"internships"`
	Pagination  PaginationInfo       `json:"pagination"`
}
