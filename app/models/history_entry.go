package models

import (
	"time"
)

// HistoryEntry is one generated proposal kept for the session that created it.
type HistoryEntry struct {
	ID            string    `gorm:"primaryKey;type:char(36)" json:"id"`
	SessionID     string    `gorm:"index:idx_history_session_created,priority:1;type:varchar(64)" json:"-"`
	CreatedAt     time.Time `gorm:"index:idx_history_session_created,priority:2;index" json:"created_at"`
	Platform      string    `gorm:"type:varchar(32)" json:"platform"`
	Model         string    `gorm:"type:varchar(64)" json:"model"`
	SkillsSummary string    `gorm:"type:varchar(255)" json:"skills_summary"`
	JobPreview    string    `gorm:"type:varchar(512)" json:"job_preview"`
	GeneratedText string    `gorm:"type:mediumtext" json:"generated_text"`
	UsedResume    bool      `gorm:"type:tinyint(1);default:0" json:"used_resume"`
	ShareSlug     string    `gorm:"uniqueIndex;type:varchar(16)" json:"share_slug"`
	ViewCount     uint64    `gorm:"default:0" json:"view_count"`
}

// TableName specifies the table name for the HistoryEntry model
func (HistoryEntry) TableName() string {
	return "history_entries"
}
