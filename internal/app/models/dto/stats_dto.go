package dto

// StudentDashboard aggregates the student's own applications
type StudentDashboard struct {
	ActiveInternships    int `json:"activeInternships"`
	CompletedInternships int `json:"completedInternships"`
	TotalApplications    int `json:"totalApplications"`
	PendingCertificates  int `json:"pendingCertificates"`
}

// FacultyDashboard aggregates the faculty member's department
type FacultyDashboard struct {
	MyInternships         int `json:"myInternships"`
	DepartmentInternships int `json:"departmentInternships"`
	DepartmentStudents    int `json:"departmentStudents"`
	TotalApplications     int `json:"totalApplications"`
	ActiveApplications    int `json:"activeApplications"`
	CompletedApplications int `json:"completedApplications"`
	PendingVerifications  int `json:"pendingVerifications"`
}

// AdminDashboard aggregates the whole portal
type AdminDashboard struct {
	Students              int `json:"students"`
	Faculty               int `json:"faculty"`
	Internships           int `json:"internships"`
	Departments           int `json:"departments"`
	VerifiedCertificates  int `json:"verifiedCertificates"`
	ActiveApplications    int `json:"activeApplications"`
	CompletedApplications int `json:"completedApplications"`
}
