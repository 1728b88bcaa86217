package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	DepartmentRepository     *DepartmentRepository
	ProfileRepository        *ProfileRepository
	InternshipRepository     *InternshipRepository
	ApplicationRepository    *ApplicationRepository
	CertificateRepository    *CertificateRepository
	TokenRepository          *TokenRepository
	StorageCleanupRepository *StorageCleanupRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		DepartmentRepository:     NewDepartmentRepository(db),
		ProfileRepository:        NewProfileRepository(db),
		InternshipRepository:     NewInternshipRepository(db),
		ApplicationRepository:    NewApplicationRepository(db),
		CertificateRepository:    NewCertificateRepository(db),
		TokenRepository:          NewTokenRepository(db),
		StorageCleanupRepository: NewStorageCleanupRepository(db),
	}
}
