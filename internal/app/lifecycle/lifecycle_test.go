package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

func app(status models.ApplicationStatus) *models.Application {
	return &models.Application{ID: uuid.New(), Status: status}
}

func cert(status models.CertificateStatus) *models.Certificate {
	return &models.Certificate{ID: uuid.New(), Status: status, UploadedAt: time.Now()}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		app  *models.Application
		cert *models.Certificate
		want State
	}{
		{"no application", nil, nil, StateNone},
		{"pending without certificate", app(models.ApplicationPending), nil, StateActiveNoCert},
		{"accepted without certificate", app(models.ApplicationAccepted), nil, StateActiveNoCert},
		{"pending with pending certificate", app(models.ApplicationPending), cert(models.CertificatePending), StateActiveWithCert},
		{"approved with pending certificate", app(models.ApplicationApproved), cert(models.CertificatePending), StateActiveWithCert},
		{"completed with pending certificate", app(models.ApplicationCompleted), cert(models.CertificatePending), StateAwaitingVerification},
		{"verified certificate", app(models.ApplicationCompleted), cert(models.CertificateVerified), StateVerifiedComplete},
		{"verified certificate ignores application status", app(models.ApplicationPending), cert(models.CertificateVerified), StateVerifiedComplete},
		{"rejected certificate", app(models.ApplicationCompleted), cert(models.CertificateRejected), StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.app, tt.cert))
		})
	}
}

func TestCheckTransitions(t *testing.T) {
	allowed := []struct {
		from  State
		event Event
	}{
		{StateNone, EventCreate},
		{StateActiveNoCert, EventUploadCertificate},
		{StateActiveWithCert, EventUploadCertificate},
		{StateRejected, EventUploadCertificate},
		{StateActiveWithCert, EventMarkComplete},
		{StateActiveWithCert, EventVerify},
		{StateAwaitingVerification, EventVerify},
		{StateActiveWithCert, EventReject},
		{StateAwaitingVerification, EventReject},
		{StateActiveNoCert, EventRemove},
		{StateRejected, EventRemove},
	}
	for _, tc := range allowed {
		assert.NoError(t, Check(tc.from, tc.event), "%s from %s", tc.event, tc.from)
	}

	refused := []struct {
		from  State
		event Event
	}{
		{StateActiveNoCert, EventCreate},
		{StateActiveNoCert, EventMarkComplete},
		{StateActiveNoCert, EventVerify},
		{StateRejected, EventVerify},
		{StateRejected, EventMarkComplete},
		{StateVerifiedComplete, EventReject},
		{StateVerifiedComplete, EventVerify},
		{StateVerifiedComplete, EventUploadCertificate},
		{StateVerifiedComplete, EventRemove},
		{StateAwaitingVerification, EventUploadCertificate},
		{StateAwaitingVerification, EventMarkComplete},
	}
	for _, tc := range refused {
		err := Check(tc.from, tc.event)
		assert.ErrorIs(t, err, apperrors.ErrIllegalTransition, "%s from %s", tc.event, tc.from)
	}

	assert.ErrorIs(t, Check(StateActiveNoCert, Event("archive")), apperrors.ErrIllegalTransition)
}

func TestRejectedNeverGoesStraightToVerified(t *testing.T) {
	state := Derive(app(models.ApplicationCompleted), cert(models.CertificateRejected))
	require.Equal(t, StateRejected, state)
	assert.ErrorIs(t, Check(state, EventVerify), apperrors.ErrIllegalTransition)
}

func TestStatusAfterUpload(t *testing.T) {
	assert.Equal(t, models.ApplicationPending, StatusAfterUpload(StateRejected, models.ApplicationCompleted))
	assert.Equal(t, models.ApplicationAccepted, StatusAfterUpload(StateRejected, models.ApplicationAccepted))
	assert.Equal(t, models.ApplicationPending, StatusAfterUpload(StateActiveNoCert, models.ApplicationPending))
}

func TestReuploadAfterRejectionReturnsToActiveWithCert(t *testing.T) {
	a := app(models.ApplicationCompleted)
	from := Derive(a, cert(models.CertificateRejected))
	require.NoError(t, Check(from, EventUploadCertificate))

	a.Status = StatusAfterUpload(from, a.Status)
	assert.Equal(t, StateActiveWithCert, Derive(a, cert(models.CertificatePending)))
}

func TestCanonicalPicksLatestUpload(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	older := models.Certificate{ID: uuid.New(), Status: models.CertificateRejected, UploadedAt: base}
	newer := models.Certificate{ID: uuid.New(), Status: models.CertificatePending, UploadedAt: base.Add(time.Hour)}

	assert.Nil(t, Canonical(nil))
	assert.Equal(t, newer.ID, Canonical([]models.Certificate{older, newer}).ID)
	assert.Equal(t, newer.ID, Canonical([]models.Certificate{newer, older}).ID)

	a := models.Certificate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), UploadedAt: base}
	b := models.Certificate{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), UploadedAt: base}
	assert.Equal(t, b.ID, Canonical([]models.Certificate{a, b}).ID)
}
