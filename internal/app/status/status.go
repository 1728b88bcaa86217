// Package status projects an application and its certificate into the label
// and bucket shown on every list and dashboard.
package status

import "github.com/yigit/internportal/internal/app/models"

// Bucket is the aggregate an application is counted under
type Bucket string

const (
	BucketActive    Bucket = "active"
	BucketCompleted Bucket = "completed"
)

// Display labels
const (
	LabelCompleted            = "Completed"
	LabelAwaitingVerification = "Waiting for Faculty Verification"
	LabelActive               = "Active"
)

// Projection is the human facing status of one application
type Projection struct {
	Bucket Bucket `json:"bucket"`
	Label  string `json:"label"`
}

// Project computes the projection. It depends only on its arguments.
func Project(app models.Application, cert *models.Certificate) Projection {
	if cert != nil && cert.Status == models.CertificateVerified {
		return Projection{Bucket: BucketCompleted, Label: LabelCompleted}
	}

	switch app.Status {
	case models.ApplicationCompleted:
		return Projection{Bucket: BucketActive, Label: LabelAwaitingVerification}
	case models.ApplicationPending:
		return Projection{Bucket: BucketActive, Label: LabelActive}
	default:
		return Projection{Bucket: BucketActive, Label: string(app.Status)}
	}
}

// ProjectApplication projects an application using its attached canonical certificate
func ProjectApplication(app models.Application) Projection {
	return Project(app, app.Certificate)
}

// Counts is a partition of projected applications
type Counts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Partition counts applications by projected bucket
func Partition(apps []models.Application) Counts {
	var c Counts
	for _, a := range apps {
		switch ProjectApplication(a).Bucket {
		case BucketCompleted:
			c.Completed++
		default:
			c.Active++
		}
		c.Total++
	}
	return c
}
