package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yigit/internportal/internal/app/models"
)

// ProfileResponse is a profile as returned to clients. Email, Phone and
// ResumeURL are nil when the viewer may not see them.
type ProfileResponse struct {
	ID           uuid.UUID           `json:"id"`
	Email        *string             `json:"email,omitempty"`
	FullName     string              `json:"fullName"`
	Role         string              `json:"role" enums:"student,faculty,admin"`
	DepartmentID *uuid.UUID          `json:"departmentId,omitempty"`
	Department   *DepartmentResponse `json:"department,omitempty"`
	Batch        *string             `json:"batch,omitempty"`
	Phone        *string             `json:"phone,omitempty"`
	Bio          *string             `json:"bio,omitempty"`
	Skills       []string            `json:"skills"`
	ResumeURL    *string             `json:"resumeUrl,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// NewProfileResponse maps a profile with every field visible
func NewProfileResponse(p *models.Profile) ProfileResponse {
	email := p.Email
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	resp := ProfileResponse{
		ID:           p.ID,
		Email:        &email,
		FullName:     p.FullName,
		Role:         string(p.Role),
		DepartmentID: p.DepartmentID,
		Batch:        p.Batch,
		Phone:        p.Phone,
		Bio:          p.Bio,
		Skills:       skills,
		ResumeURL:    p.ResumeURL,
		CreatedAt:    p.CreatedAt,
	}
	if p.Department != nil {
		d := NewDepartmentResponse(p.Department)
		resp.Department = &d
	}
	return resp
}

// NewDepartmentResponse maps a department
func NewDepartmentResponse(d *models.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
	}
}

// UpdateMyProfileRequest holds the fields a user may change on their own profile
type UpdateMyProfileRequest struct {
	FullName  *string  `json:"fullName" binding:"omitempty,min=1,max=100"`
	Phone     *string  `json:"phone" binding:"omitempty,max=32"`
	Bio       *string  `json:"bio" binding:"omitempty,max=2000"`
	Skills    []string `json:"skills" binding:"omitempty,max=50,dive,max=64"`
	ResumeURL *string  `json:"resumeUrl" binding:"omitempty,url"`
}
