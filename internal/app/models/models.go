package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "student"
	RoleFaculty RoleType = "faculty"
	RoleAdmin   RoleType = "admin"
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// ApplicationStatus is the raw status column of an application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationCompleted ApplicationStatus = "completed"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// IsPreCompletion reports whether the student is still working on the internship
func (s ApplicationStatus) IsPreCompletion() bool {
	return s == ApplicationPending || s == ApplicationAccepted || s == ApplicationApproved
}

// ActiveApplicationStatuses are listed on the student's active internships screen
var ActiveApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationAccepted,
	ApplicationApproved,
	ApplicationCompleted,
}

// CertificateStatus is the raw status column of a certificate
type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "pending"
	CertificateVerified CertificateStatus = "verified"
	CertificateRejected CertificateStatus = "rejected"
)
