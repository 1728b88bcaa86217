package dto

import (
	"time"

	"github.com/google/uuid"
)

// DepartmentResponse represents basic department information
type DepartmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateDepartmentRequest represents department creation data
type CreateDepartmentRequest struct {
	Name        string  `json:"name" binding:"required,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// UpdateDepartmentRequest represents department update data
type UpdateDepartmentRequest struct {
	Name        string  `json:"name" binding:"required,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}
