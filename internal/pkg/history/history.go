// Package history keeps the generated proposals of each session.
package history

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/shortener"
	"github.com/google/uuid"
)

const (
	previewRunes  = 100
	skillsRunes   = 120
	shareSlugSize = 10
)

// ErrNotFound is returned when a share slug is unknown.
var ErrNotFound = errors.New("history entry not found")

// Store is an append-only log per session.
type Store interface {
	Append(entry *models.HistoryEntry) error
	// ListBySession returns the newest limit entries, oldest first.
	ListBySession(sessionID string, limit int) ([]models.HistoryEntry, error)
	GetByShareSlug(slug string) (*models.HistoryEntry, error)
	Count() (int64, error)
	CountSince(t time.Time) (int64, error)
}

// Input carries what the orchestrator knows after a successful generation.
type Input struct {
	SessionID     string
	Platform      string
	Model         string
	Skills        string
	JobPosting    string
	GeneratedText string
	UsedResume    bool
}

// NewEntry builds an entry with previews, a fresh id and a share slug.
func NewEntry(in Input, now time.Time) (*models.HistoryEntry, error) {
	slug, err := shortener.GenerateSecureSlug(shareSlugSize)
	if err != nil {
		return nil, err
	}

	return &models.HistoryEntry{
		ID:            uuid.NewString(),
		SessionID:     in.SessionID,
		CreatedAt:     now,
		Platform:      in.Platform,
		Model:         in.Model,
		SkillsSummary: Preview(in.Skills, skillsRunes),
		JobPreview:    Preview(in.JobPosting, previewRunes),
		GeneratedText: in.GeneratedText,
		UsedResume:    in.UsedResume,
		ShareSlug:     slug,
	}, nil
}

// Preview collapses whitespace and cuts s to max runes followed by "...".
func Preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
