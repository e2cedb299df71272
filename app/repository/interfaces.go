package repository

import (
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"gorm.io/gorm"
)

// LicenseRepository defines the interface for license-related database operations
type LicenseRepository interface {
	Create(license *models.License) error
	CreateBatch(licenses []*models.License) error
	GetByKey(key string) (*models.License, error)
	List(offset, limit int) ([]models.License, error)
	Revoke(key string) error
	Count() (int64, error)
}

// HistoryRepository defines the interface for history-related database operations.
// It satisfies history.Store.
type HistoryRepository interface {
	Append(entry *models.HistoryEntry) error
	ListBySession(sessionID string, limit int) ([]models.HistoryEntry, error)
	GetByShareSlug(slug string) (*models.HistoryEntry, error)
	Count() (int64, error)
	CountSince(t time.Time) (int64, error)
	AddViews(increments map[string]int64) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	License LicenseRepository
	History HistoryRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		License: NewLicenseRepository(db),
		History: NewHistoryRepository(db),
	}
}
