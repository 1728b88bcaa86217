package status

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/internportal/internal/app/models"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name       string
		appStatus  models.ApplicationStatus
		certStatus models.CertificateStatus // empty means no certificate
		want       Projection
	}{
		{"pending without certificate", models.ApplicationPending, "", Projection{BucketActive, LabelActive}},
		{"pending with pending certificate", models.ApplicationPending, models.CertificatePending, Projection{BucketActive, LabelActive}},
		{"completed awaiting verification", models.ApplicationCompleted, models.CertificatePending, Projection{BucketActive, LabelAwaitingVerification}},
		{"completed with rejected certificate", models.ApplicationCompleted, models.CertificateRejected, Projection{BucketActive, LabelAwaitingVerification}},
		{"verified", models.ApplicationCompleted, models.CertificateVerified, Projection{BucketCompleted, LabelCompleted}},
		{"verified wins over pending status", models.ApplicationPending, models.CertificateVerified, Projection{BucketCompleted, LabelCompleted}},
		{"accepted verbatim", models.ApplicationAccepted, "", Projection{BucketActive, "accepted"}},
		{"approved verbatim", models.ApplicationApproved, models.CertificatePending, Projection{BucketActive, "approved"}},
		{"rejected verbatim", models.ApplicationRejected, "", Projection{BucketActive, "rejected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := models.Application{ID: uuid.New(), Status: tt.appStatus}
			var cert *models.Certificate
			if tt.certStatus != "" {
				cert = &models.Certificate{ID: uuid.New(), Status: tt.certStatus}
			}

			got := Project(app, cert)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Project(app, cert), "projection must be repeatable")
		})
	}
}

func TestCompletedBucketIffVerified(t *testing.T) {
	appStatuses := []models.ApplicationStatus{
		models.ApplicationPending, models.ApplicationAccepted, models.ApplicationApproved,
		models.ApplicationCompleted, models.ApplicationRejected,
	}
	certStatuses := []models.CertificateStatus{"", models.CertificatePending, models.CertificateVerified, models.CertificateRejected}

	for _, as := range appStatuses {
		for _, cs := range certStatuses {
			var cert *models.Certificate
			if cs != "" {
				cert = &models.Certificate{Status: cs}
			}
			got := Project(models.Application{Status: as}, cert)
			assert.Equal(t, cs == models.CertificateVerified, got.Bucket == BucketCompleted, "app=%s cert=%q", as, cs)
		}
	}
}

func TestPartition(t *testing.T) {
	apps := []models.Application{
		{Status: models.ApplicationPending},
		{Status: models.ApplicationCompleted, Certificate: &models.Certificate{Status: models.CertificatePending}},
		{Status: models.ApplicationCompleted, Certificate: &models.Certificate{Status: models.CertificateVerified}},
		{Status: models.ApplicationAccepted, Certificate: &models.Certificate{Status: models.CertificateRejected}},
	}

	assert.Equal(t, Counts{Active: 3, Completed: 1, Total: 4}, Partition(apps))
	assert.Equal(t, Counts{}, Partition(nil))
}
