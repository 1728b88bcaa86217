package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/yigit/internportal/internal/app/auth"
	"github.com/yigit/internportal/internal/app/lifecycle"
	"github.com/yigit/internportal/internal/app/models"
	"github.com/yigit/internportal/internal/app/models/dto"
	"github.com/yigit/internportal/internal/app/repositories"
	"github.com/yigit/internportal/internal/db"
	"github.com/yigit/internportal/internal/pkg/apperrors"
	"github.com/yigit/internportal/internal/pkg/email"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func quietLogger() zerolog.Logger { return zerolog.New(io.Discard) }

// memDB is an in-memory record store shared by the repository fakes
type memDB struct {
	mu           sync.Mutex
	departments  map[uuid.UUID]*models.Department
	profiles     map[uuid.UUID]*models.Profile
	internships  map[uuid.UUID]*models.Internship
	applications map[uuid.UUID]*models.Application
	certificates map[uuid.UUID]*models.Certificate
	cleanup      []models.StorageCleanup
	clock        time.Time

	failCertificateCreate error
	failProfilePatch      error
}

func newMemDB() *memDB {
	return &memDB{
		departments:  map[uuid.UUID]*models.Department{},
		profiles:     map[uuid.UUID]*models.Profile{},
		internships:  map[uuid.UUID]*models.Internship{},
		applications: map[uuid.UUID]*models.Application{},
		certificates: map[uuid.UUID]*models.Certificate{},
		clock:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp
func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) addDepartment(name string) uuid.UUID {
	id := uuid.New()
	m.departments[id] = &models.Department{ID: id, Name: name, CreatedAt: m.tick()}
	return id
}

func (m *memDB) addProfile(role models.RoleType, departmentID *uuid.UUID) *models.Profile {
	p := &models.Profile{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s-%d@college.edu", role, len(m.profiles)),
		FullName:     string(role) + " user",
		Role:         role,
		DepartmentID: departmentID,
		Skills:       []string{},
		CreatedAt:    m.tick(),
	}
	m.profiles[p.ID] = p
	return p
}

func (m *memDB) addInternship(departmentID, facultyID uuid.UUID) *models.Internship {
	i := &models.Internship{
		ID:           uuid.New(),
		CompanyName:  "Acme",
		Title:        "Backend Intern",
		Domain:       "Web",
		Duration:     "3 months",
		DepartmentID: departmentID,
		FacultyID:    facultyID,
		IsActive:     true,
		CreatedAt:    m.tick(),
	}
	m.internships[i.ID] = i
	return i
}

func (m *memDB) addApplication(studentID, internshipID uuid.UUID, status models.ApplicationStatus) *models.Application {
	a := &models.Application{ID: uuid.New(), StudentID: studentID, InternshipID: internshipID, Status: status, AppliedAt: m.tick()}
	m.applications[a.ID] = a
	return a
}

func (m *memDB) addCertificate(app *models.Application, status models.CertificateStatus) *models.Certificate {
	c := &models.Certificate{
		ID:             uuid.New(),
		ApplicationID:  app.ID,
		StudentID:      app.StudentID,
		InternshipID:   app.InternshipID,
		CertificateURL: app.StudentID.String() + "/" + app.ID.String() + ".pdf",
		Status:         status,
		UploadedAt:     m.tick(),
	}
	m.certificates[c.ID] = c
	return c
}

func (m *memDB) certificatesOf(appID uuid.UUID) []models.Certificate {
	var out []models.Certificate
	for _, c := range m.certificates {
		if c.ApplicationID == appID {
			out = append(out, *c)
		}
	}
	return out
}

// hydrate attaches the relations the SQL repository joins in
func (m *memDB) hydrate(a *models.Application) models.Application {
	out := *a
	if i, ok := m.internships[a.InternshipID]; ok {
		ic := *i
		out.Internship = &ic
	}
	if p, ok := m.profiles[a.StudentID]; ok {
		pc := *p
		out.Student = &pc
	}
	out.Certificate = lifecycle.Canonical(m.certificatesOf(a.ID))
	return out
}

type memDepartments struct{ db *memDB }

func (r memDepartments) Create(_ context.Context, d *models.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.departments {
		if existing.Name == d.Name {
			return apperrors.ErrDepartmentExists
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = r.db.tick()
	dc := *d
	r.db.departments[d.ID] = &dc
	return nil
}

func (r memDepartments) GetByID(_ context.Context, id uuid.UUID) (*models.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.departments[id]
	if !ok {
		return nil, apperrors.ErrDepartmentNotFound
	}
	dc := *d
	return &dc, nil
}

func (r memDepartments) GetAll(_ context.Context) ([]*models.Department, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.Department, 0, len(r.db.departments))
	for _, d := range r.db.departments {
		dc := *d
		out = append(out, &dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memDepartments) Update(_ context.Context, d *models.Department) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.departments[d.ID]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	dc := *d
	r.db.departments[d.ID] = &dc
	return nil
}

func (r memDepartments) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.departments[id]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	for _, p := range r.db.profiles {
		if p.DepartmentID != nil && *p.DepartmentID == id {
			return apperrors.ErrDepartmentHasMembers
		}
	}
	delete(r.db.departments, id)
	return nil
}

func (r memDepartments) Count(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.departments), nil
}

type memProfiles struct{ db *memDB }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.profiles {
		if existing.Email == p.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = r.db.tick()
	p.UpdatedAt = p.CreatedAt
	pc := *p
	r.db.profiles[p.ID] = &pc
	return nil
}

func (r memProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	pc := *p
	return &pc, nil
}

func (r memProfiles) GetByEmail(_ context.Context, email string) (*models.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.profiles {
		if p.Email == email {
			pc := *p
			return &pc, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r memProfiles) ListByDepartmentAndRole(_ context.Context, departmentID uuid.UUID, role models.RoleType) ([]*models.Profile, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Profile
	for _, p := range r.db.profiles {
		if p.Role == role && p.DepartmentID != nil && *p.DepartmentID == departmentID {
			pc := *p
			out = append(out, &pc)
		}
	}
	return out, nil
}

func (r memProfiles) CountByRole(_ context.Context, role models.RoleType, departmentID *uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, p := range r.db.profiles {
		if p.Role != role {
			continue
		}
		if departmentID != nil && (p.DepartmentID == nil || *p.DepartmentID != *departmentID) {
			continue
		}
		n++
	}
	return n, nil
}

func (r memProfiles) Patch(_ context.Context, id uuid.UUID, patch repositories.ProfilePatch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failProfilePatch != nil {
		return r.db.failProfilePatch
	}
	p, ok := r.db.profiles[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if patch.DepartmentID != nil {
		if _, ok := r.db.departments[*patch.DepartmentID]; !ok {
			return apperrors.ErrDepartmentNotFound
		}
		dep := *patch.DepartmentID
		p.DepartmentID = &dep
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Batch != nil {
		b := *patch.Batch
		p.Batch = &b
	}
	if patch.Phone != nil {
		p.Phone = patch.Phone
	}
	if patch.Bio != nil {
		p.Bio = patch.Bio
	}
	if patch.Skills != nil {
		p.Skills = patch.Skills
	}
	if patch.ResumeURL != nil {
		p.ResumeURL = patch.ResumeURL
	}
	return nil
}

func (r memProfiles) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.profiles {
		if p.Email == email && p.ID != id {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	p, ok := r.db.profiles[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.Email = email
	return nil
}

func (r memProfiles) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.profiles[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (r memProfiles) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.db.profiles, id)
	return nil
}

type memInternships struct{ db *memDB }

func (r memInternships) WithTx(pgx.Tx) repositories.IInternshipRepository { return r }

func (r memInternships) Create(_ context.Context, i *models.Internship) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.departments[i.DepartmentID]; !ok {
		return apperrors.ErrDepartmentNotFound
	}
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.CreatedAt = r.db.tick()
	ic := *i
	r.db.internships[i.ID] = &ic
	return nil
}

func (r memInternships) GetByID(_ context.Context, id uuid.UUID) (*models.Internship, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	i, ok := r.db.internships[id]
	if !ok {
		return nil, apperrors.ErrInternshipNotFound
	}
	ic := *i
	return &ic, nil
}

func (r memInternships) List(_ context.Context, f repositories.InternshipFilter) ([]*models.Internship, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Internship
	for _, i := range r.db.internships {
		if f.DepartmentID != nil && i.DepartmentID != *f.DepartmentID {
			continue
		}
		if f.FacultyID != nil && i.FacultyID != *f.FacultyID {
			continue
		}
		if f.ActiveOnly && !i.IsActive {
			continue
		}
		ic := *i
		out = append(out, &ic)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	total := int64(len(out))
	if int(f.Offset) < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r memInternships) Update(_ context.Context, i *models.Internship) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.internships[i.ID]; !ok {
		return apperrors.ErrInternshipNotFound
	}
	ic := *i
	r.db.internships[i.ID] = &ic
	return nil
}

func (r memInternships) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.internships[id]; !ok {
		return apperrors.ErrInternshipNotFound
	}
	delete(r.db.internships, id)
	return nil
}

type memApplications struct{ db *memDB }

func (r memApplications) WithTx(pgx.Tx) repositories.IApplicationRepository { return r }

func (r memApplications) Create(_ context.Context, a *models.Application) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.applications {
		if existing.StudentID == a.StudentID && existing.InternshipID == a.InternshipID {
			return apperrors.ErrApplicationExists
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	a.AppliedAt = r.db.tick()
	ac := *a
	r.db.applications[a.ID] = &ac
	return nil
}

func (r memApplications) GetByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.applications[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	out := r.db.hydrate(a)
	return &out, nil
}

func (r memApplications) LockByID(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.applications[id]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	return nil
}

func (r memApplications) List(_ context.Context, f repositories.ApplicationFilter) ([]models.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Application, 0)
	for _, a := range r.db.applications {
		h := r.db.hydrate(a)
		if f.StudentID != nil && a.StudentID != *f.StudentID {
			continue
		}
		if f.InternshipID != nil && a.InternshipID != *f.InternshipID {
			continue
		}
		if f.StudentDepartmentID != nil && (h.Student == nil || h.Student.DepartmentID == nil || *h.Student.DepartmentID != *f.StudentDepartmentID) {
			continue
		}
		if f.InternshipFacultyID != nil && (h.Internship == nil || h.Internship.FacultyID != *f.InternshipFacultyID) {
			continue
		}
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, a.Status) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func containsStatus(list []models.ApplicationStatus, s models.ApplicationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r memApplications) UpdateStatus(_ context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.applications[id]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	a.Status = status
	return nil
}

func (r memApplications) UpdateDates(_ context.Context, id uuid.UUID, start, end time.Time, status models.ApplicationStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.applications[id]
	if !ok {
		return apperrors.ErrApplicationNotFound
	}
	a.StartDate, a.EndDate, a.Status = &start, &end, status
	return nil
}

func (r memApplications) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.applications[id]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	delete(r.db.applications, id)
	for cid, c := range r.db.certificates {
		if c.ApplicationID == id {
			delete(r.db.certificates, cid)
		}
	}
	return nil
}

func (r memApplications) DeleteByInternship(_ context.Context, internshipID uuid.UUID) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for id, a := range r.db.applications {
		if a.InternshipID == internshipID {
			delete(r.db.applications, id)
			n++
		}
	}
	return n, nil
}

type memCertificates struct{ db *memDB }

func (r memCertificates) WithTx(pgx.Tx) repositories.ICertificateRepository { return r }

func (r memCertificates) Create(_ context.Context, c *models.Certificate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCertificateCreate != nil {
		return r.db.failCertificateCreate
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.CertificatePending
	}
	c.UploadedAt = r.db.tick()
	cc := *c
	r.db.certificates[c.ID] = &cc
	return nil
}

func (r memCertificates) GetByID(_ context.Context, id uuid.UUID) (*models.Certificate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.certificates[id]
	if !ok {
		return nil, apperrors.ErrCertificateNotFound
	}
	cc := *c
	return &cc, nil
}

func (r memCertificates) GetCanonical(_ context.Context, applicationID uuid.UUID) (*models.Certificate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c := lifecycle.Canonical(r.db.certificatesOf(applicationID))
	if c == nil {
		return nil, apperrors.ErrCertificateNotFound
	}
	return c, nil
}

func (r memCertificates) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]models.Certificate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.certificatesOf(applicationID), nil
}

func (r memCertificates) MarkVerified(_ context.Context, id, verifierID uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.certificates[id]
	if !ok {
		return apperrors.ErrCertificateNotFound
	}
	if c.Status != models.CertificatePending {
		return apperrors.ErrIllegalTransition
	}
	c.Status, c.VerifiedBy, c.VerifiedAt, c.RejectionReason = models.CertificateVerified, &verifierID, &at, nil
	return nil
}

func (r memCertificates) MarkRejected(_ context.Context, id uuid.UUID, reason string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.certificates[id]
	if !ok {
		return apperrors.ErrCertificateNotFound
	}
	if c.Status != models.CertificatePending {
		return apperrors.ErrIllegalTransition
	}
	c.Status, c.RejectionReason = models.CertificateRejected, &reason
	return nil
}

func (r memCertificates) ListVerified(_ context.Context, departmentID *uuid.UUID) ([]repositories.VerifiedCertificateRow, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var rows []repositories.VerifiedCertificateRow
	for _, c := range r.db.certificates {
		if c.Status != models.CertificateVerified {
			continue
		}
		student := r.db.profiles[c.StudentID]
		if departmentID != nil && (student == nil || student.DepartmentID == nil || *student.DepartmentID != *departmentID) {
			continue
		}
		row := repositories.VerifiedCertificateRow{Certificate: *c}
		if student != nil {
			row.StudentName, row.StudentEmail = student.FullName, student.Email
		}
		if i, ok := r.db.internships[c.InternshipID]; ok {
			company := i.CompanyName
			row.InternshipTitle, row.CompanyName = i.Title, &company
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Certificate.UploadedAt.After(rows[j].Certificate.UploadedAt) })
	return rows, nil
}

func (r memCertificates) CountVerified(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, c := range r.db.certificates {
		if c.Status == models.CertificateVerified {
			n++
		}
	}
	return n, nil
}

type memCleanup struct{ db *memDB }

func (r memCleanup) Flag(_ context.Context, key, reason string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.cleanup = append(r.db.cleanup, models.StorageCleanup{ID: int64(len(r.db.cleanup) + 1), ObjectKey: key, Reason: reason, CreatedAt: r.db.tick()})
	return nil
}

func (r memCleanup) ListPending(_ context.Context, limit uint64) ([]models.StorageCleanup, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.StorageCleanup
	for _, c := range r.db.cleanup {
		if c.ProcessedAt == nil && uint64(len(out)) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCleanup) MarkProcessed(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.cleanup {
		if r.db.cleanup[i].ID == id {
			now := r.db.tick()
			r.db.cleanup[i].ProcessedAt = &now
		}
	}
	return nil
}

type memTokens struct {
	mu      sync.Mutex
	tokens  map[string]memToken
	revoked map[uuid.UUID]int
}

type memToken struct {
	userID  uuid.UUID
	expiry  time.Time
	revoked bool
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]memToken{}, revoked: map[uuid.UUID]int{}}
}

func (t *memTokens) CreateToken(_ context.Context, token string, userID uuid.UUID, expiry time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[token] = memToken{userID: userID, expiry: expiry}
	return nil
}

func (t *memTokens) GetTokenByValue(_ context.Context, token string) (uuid.UUID, time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[token]
	if !ok {
		return uuid.Nil, time.Time{}, apperrors.ErrTokenNotFound
	}
	if tok.revoked {
		return uuid.Nil, time.Time{}, apperrors.ErrTokenRevoked
	}
	return tok.userID, tok.expiry, nil
}

func (t *memTokens) RevokeToken(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	tok.revoked = true
	t.tokens[token] = tok
	return nil
}

func (t *memTokens) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, tok := range t.tokens {
		if tok.userID == userID {
			tok.revoked = true
			t.tokens[k] = tok
		}
	}
	t.revoked[userID]++
	return nil
}

func (t *memTokens) CleanupExpiredTokens(context.Context) (int64, error) { return 0, nil }

// fakeTx runs the function without a real transaction
type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn db.TransactionFn) error {
	return fn(ctx, nil)
}

// memObjectStore keeps objects in memory
type memObjectStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    error
	failDelete error
	deletes    []string
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return err
	}
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, key)
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/certificates/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (s *memObjectStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// mockNotifier records notification triggers
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) InternshipPosted(ctx context.Context, internship *models.Internship) {
	m.Called(ctx, internship)
}

func (m *mockNotifier) VerificationRequested(ctx context.Context, req dto.VerificationNotificationRequest) {
	m.Called(ctx, req)
}

// countingStats counts cache invalidations
type countingStats struct {
	mu          sync.Mutex
	invalidated int
}

func (s *countingStats) Invalidate(context.Context) {
	s.mu.Lock()
	s.invalidated++
	s.mu.Unlock()
}

// recordingMailer collects sent emails; addresses in fail are refused
type recordingMailer struct {
	mu           sync.Mutex
	internship   []email.Recipient
	verification []email.Recipient
	fail         map[string]bool
}

func (m *recordingMailer) SendInternshipPosted(to email.Recipient, _ email.InternshipPosted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to.Email] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.internship = append(m.internship, to)
	return nil
}

func (m *recordingMailer) SendVerificationRequest(to email.Recipient, _ email.VerificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[to.Email] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.verification = append(m.verification, to)
	return nil
}

func callerOf(p *models.Profile) auth.Caller {
	return auth.CallerFromProfile(p)
}
