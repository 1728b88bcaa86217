package models

import (
	"time"

	"github.com/google/uuid"
)

// Department is the organizational scope for students, faculty and internships
type Department struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name" example:"Computer Science"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
