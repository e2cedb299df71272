package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// License is an issued license key. Rows are written by the license generator
// and only read on the request path.
type License struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;type:varchar(64)" json:"key" validate:"required,startswith=PROPOSAL-,min=10,max=64"`
	Tier      string    `gorm:"type:varchar(16);index" json:"tier" validate:"required,oneof=monthly yearly lifetime"`
	ExpiresOn time.Time `gorm:"type:date" json:"expires_on" validate:"required"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty" validate:"omitempty,email"`
	Revoked   bool      `gorm:"type:tinyint(1);default:0" json:"revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the License model
func (License) TableName() string {
	return "licenses"
}

func (l *License) Validate() error {
	v := validator.New()

	return v.Struct(l)
}

// BeforeCreate rejects rows the request path could never match.
func (l *License) BeforeCreate(tx *gorm.DB) error {
	return l.Validate()
}
