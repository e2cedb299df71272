package repository

import (
	"github.com/ManuelReschke/ProposalCraft/app/models"
	"gorm.io/gorm"
)

// licenseRepository implements the LicenseRepository interface
type licenseRepository struct {
	db *gorm.DB
}

// NewLicenseRepository creates a new license repository instance
func NewLicenseRepository(db *gorm.DB) LicenseRepository {
	return &licenseRepository{db: db}
}

// Create inserts a new license
func (r *licenseRepository) Create(license *models.License) error {
	return r.db.Create(license).Error
}

// CreateBatch inserts all licenses in one transaction
func (r *licenseRepository) CreateBatch(licenses []*models.License) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, l := range licenses {
			if err := tx.Create(l).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByKey retrieves a license by its normalized key
func (r *licenseRepository) GetByKey(key string) (*models.License, error) {
	var license models.License
	err := r.db.Where("`key` = ?", key).First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// List retrieves licenses with pagination, newest first
func (r *licenseRepository) List(offset, limit int) ([]models.License, error) {
	var licenses []models.License
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&licenses).Error
	return licenses, err
}

// Revoke marks a license as revoked
func (r *licenseRepository) Revoke(key string) error {
	res := r.db.Model(&models.License{}).Where("`key` = ?", key).Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total number of licenses
func (r *licenseRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.License{}).Count(&count).Error
	return count, err
}
