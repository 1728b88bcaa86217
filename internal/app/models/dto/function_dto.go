package dto

import "github.com/google/uuid"

// Privileged function payloads use snake_case keys and a bare {error} body on failure.

// ManageAccountRequest is the body of manage-faculty and manage-students
type ManageAccountRequest struct {
	Action       string       `json:"action"`
	UserID       string       `json:"user_id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Password     string       `json:"password,omitempty"`
	Batch        string       `json:"batch,omitempty"`
	DepartmentID string       `json:"department_id,omitempty"`
	NewPassword  string       `json:"new_password,omitempty"`
	Students     []StudentRow `json:"students,omitempty"`
}

// StudentRow is one already parsed row of a bulk student import
type StudentRow struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Batch    string `json:"batch"`
}

// FunctionResult is the success body of single-account actions
type FunctionResult struct {
	Success bool       `json:"success"`
	ID      *uuid.UUID `json:"id,omitempty"`
	Message string     `json:"message,omitempty"`
}

// BulkRowResult is the outcome of one bulk_create row
type BulkRowResult struct {
	Email   string     `json:"email"`
	ID      *uuid.UUID `json:"id,omitempty"`
	Success bool       `json:"success,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// BulkCreateResponse lists per-row results in input order
type BulkCreateResponse struct {
	Results   []BulkRowResult `json:"results"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

// FunctionError is the failure body of every privileged function
type FunctionError struct {
	Error string `json:"error"`
}

// InternshipNotificationRequest is the body of send-internship-notification
type InternshipNotificationRequest struct {
	InternshipID string `json:"internship_id"`
	DepartmentID string `json:"department_id"`
}

// VerificationNotificationRequest is the body of send-verification-notification
type VerificationNotificationRequest struct {
	CertificateID   string `json:"certificate_id"`
	StudentName     string `json:"student_name"`
	StudentEmail    string `json:"student_email"`
	InternshipTitle string `json:"internship_title"`
	CompanyName     string `json:"company_name"`
	DepartmentID    string `json:"department_id"`
}

// NotificationResult reports a notification fan-out
type NotificationResult struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Sent    int    `json:"sent"`
	Failed  *int   `json:"failed,omitempty"`
	Total   *int   `json:"total,omitempty"`
}
