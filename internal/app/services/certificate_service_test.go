package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// lockedAfter runs onLock once, just before the application lock is granted,
// standing in for a review that commits first
type lockedAfter struct {
	repositories.IApplicationRepository
	onLock func()
}

func (l *lockedAfter) WithTx(pgx.Tx) repositories.IApplicationRepository { return l }

func (l *lockedAfter) LockByID(ctx context.Context, id uuid.UUID) error {
	if f := l.onLock; f != nil {
		l.onLock = nil
		f()
	}
	return l.IApplicationRepository.LockByID(ctx, id)
}

func (h *lifecycleHarness) reviewerWithRival(rival func()) *CertificateService {
	apps := &lockedAfter{IApplicationRepository: memApplications{h.db}, onLock: rival}
	return NewCertificateService(fakeTx{}, memCertificates{h.db}, apps, h.store,
		auth.NewAuthorizationService(memProfiles{h.db}, false), h.stats, time.Hour, quietLogger())
}

func TestVerifyLosesToConcurrentReject(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	cert := h.db.addCertificate(app, models.CertificatePending)
	colleague := h.db.addProfile(models.RoleFaculty, &h.department)

	reviewer := h.reviewerWithRival(func() {
		_, err := h.certs.RejectCertificate(ctx, callerOf(colleague), cert.ID, "illegible scan")
		require.NoError(t, err)
	})

	_, err := reviewer.VerifyCertificate(ctx, callerOf(h.faculty), cert.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	stored := h.db.certificates[cert.ID]
	assert.Equal(t, models.CertificateRejected, stored.Status)
	assert.Nil(t, stored.VerifiedBy)
	require.NotNil(t, stored.RejectionReason)
	assert.Equal(t, "illegible scan", *stored.RejectionReason)
}

func TestRejectLosesToConcurrentVerify(t *testing.T) {
	h := newLifecycleHarness(t)
	ctx := context.Background()
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	cert := h.db.addCertificate(app, models.CertificatePending)
	colleague := h.db.addProfile(models.RoleFaculty, &h.department)

	reviewer := h.reviewerWithRival(func() {
		_, err := h.certs.VerifyCertificate(ctx, callerOf(colleague), cert.ID)
		require.NoError(t, err)
	})

	_, err := reviewer.RejectCertificate(ctx, callerOf(h.faculty), cert.ID, "wrong dates")
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	stored := h.db.certificates[cert.ID]
	assert.Equal(t, models.CertificateVerified, stored.Status)
	assert.Nil(t, stored.RejectionReason)
	require.NotNil(t, stored.VerifiedBy)
	assert.Equal(t, colleague.ID, *stored.VerifiedBy)
}

func TestVerifiedCertificateCannotBeRejected(t *testing.T) {
	h := newLifecycleHarness(t)
	app := h.db.addApplication(h.student.ID, h.internship.ID, models.ApplicationCompleted)
	cert := h.db.addCertificate(app, models.CertificateVerified)

	_, err := h.certs.RejectCertificate(context.Background(), callerOf(h.faculty), cert.ID, "second thoughts")
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, models.CertificateVerified, h.db.certificates[cert.ID].Status)
}
