// Package services holds the business logic of the portal.
//
// Services defined in this package:
//   - AuthService: signup, login and token rotation
//   - AccountService: privileged faculty and student account management
//   - DepartmentService: department administration
//   - ProfileService: profile reads with the viewer dependent field filter
//   - InternshipService: internship postings
//   - ApplicationService: the student side of the application lifecycle
//   - CertificateService: certificate review and the certificate centre
//   - NotificationService: internship and verification emails
//   - StatsService: cached dashboard aggregates
package services
