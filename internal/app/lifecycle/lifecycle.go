// Package lifecycle defines the states of an application/certificate pair
// and the transitions allowed between them. State is never stored; it is
// derived from the application row and its canonical certificate.
package lifecycle

import (
	"fmt"
	"sort"

	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/pkg/apperrors"
)

// State is the derived lifecycle state
type State string

const (
	StateNone                 State = ""
	StateActiveNoCert         State = "ACTIVE_NO_CERT"
	StateActiveWithCert       State = "ACTIVE_WITH_CERT"
	StateAwaitingVerification State = "AWAITING_VERIFICATION"
	StateVerifiedComplete     State = "VERIFIED_COMPLETE"
	StateRejected             State = "REJECTED"
)

// Event is a requested transition
type Event string

const (
	EventCreate            Event = "create"
	EventUploadCertificate Event = "upload_certificate"
	EventMarkComplete      Event = "mark_complete"
	EventVerify            Event = "verify"
	EventReject            Event = "reject"
	EventRemove            Event = "remove"
)

var transitions = map[Event][]State{
	EventCreate:            {StateNone},
	EventUploadCertificate: {StateActiveNoCert, StateActiveWithCert, StateRejected},
	EventMarkComplete:      {StateActiveWithCert},
	EventVerify:            {StateActiveWithCert, StateAwaitingVerification},
	EventReject:            {StateActiveWithCert, StateAwaitingVerification},
	EventRemove:            {StateActiveNoCert, StateActiveWithCert, StateAwaitingVerification, StateRejected},
}

// Derive computes the state of app given its canonical certificate (nil when none)
func Derive(app *models.Application, cert *models.Certificate) State {
	if app == nil {
		return StateNone
	}
	if cert == nil {
		return StateActiveNoCert
	}
	switch cert.Status {
	case models.CertificateVerified:
		return StateVerifiedComplete
	case models.CertificateRejected:
		return StateRejected
	}
	if app.Status == models.ApplicationCompleted {
		return StateAwaitingVerification
	}
	return StateActiveWithCert
}

// Allowed reports whether event may fire from state
func Allowed(from State, event Event) bool {
	for _, s := range transitions[event] {
		if s == from {
			return true
		}
	}
	return false
}

// Check returns an ErrIllegalTransition wrapping error when event may not fire from state
func Check(from State, event Event) error {
	if _, known := transitions[event]; !known {
		return fmt.Errorf("%w: unknown event %q", apperrors.ErrIllegalTransition, event)
	}
	if !Allowed(from, event) {
		name := string(from)
		if from == StateNone {
			name = "NONE"
		}
		return fmt.Errorf("%w: cannot %s from %s", apperrors.ErrIllegalTransition, event, name)
	}
	return nil
}

// StatusAfterUpload returns the application status to store after a certificate
// upload. A re-upload after rejection takes a completed application back to
// pending so the pair returns to ACTIVE_WITH_CERT.
func StatusAfterUpload(from State, current models.ApplicationStatus) models.ApplicationStatus {
	if from == StateRejected && current == models.ApplicationCompleted {
		return models.ApplicationPending
	}
	return current
}

// Canonical picks the certificate that counts for an application: the latest
// uploaded_at, ties broken by the greater id. The repository orders rows the
// same way.
func Canonical(certs []models.Certificate) *models.Certificate {
	if len(certs) == 0 {
		return nil
	}
	sorted := make([]models.Certificate, len(certs))
	copy(sorted, certs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UploadedAt.Equal(sorted[j].UploadedAt) {
			return sorted[i].UploadedAt.After(sorted[j].UploadedAt)
		}
		return sorted[i].ID.String() > sorted[j].ID.String()
	})
	return &sorted[0]
}
