package repository

import (
	"sort"
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/history"
	"gorm.io/gorm"
)

// historyRepository implements the HistoryRepository interface
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository instance
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Append inserts a history entry
func (r *historyRepository) Append(entry *models.HistoryEntry) error {
	return r.db.Create(entry).Error
}

// ListBySession returns the newest limit entries of a session, oldest first
func (r *historyRepository) ListBySession(sessionID string, limit int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	q := r.db.Where("session_id = ?", sessionID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// GetByShareSlug retrieves an entry by its public slug
func (r *historyRepository) GetByShareSlug(slug string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	err := r.db.Where("share_slug = ?", slug).First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Count returns the total number of entries
func (r *historyRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.HistoryEntry{}).Count(&count).Error
	return count, err
}

// CountSince returns the number of entries created at or after t
func (r *historyRepository) CountSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.HistoryEntry{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}

// AddViews applies batched view counter increments keyed by share slug
func (r *historyRepository) AddViews(increments map[string]int64) error {
	if len(increments) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for slug, inc := range increments {
			err := tx.Model(&models.HistoryEntry{}).
				Where("share_slug = ?", slug).
				UpdateColumn("view_count", gorm.Expr("view_count + ?", inc)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
