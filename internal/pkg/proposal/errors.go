package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/abuse"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/llm"
)

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

// LimitReason says which ceiling denied a request.
type LimitReason string

const (
	LimitDaily  LimitReason = "daily"
	LimitHourly LimitReason = "hourly"
	LimitAbuse  LimitReason = "abuse"
)

// RateLimitError is returned when the gate denies an otherwise valid request.
type RateLimitError struct {
	Reason     LimitReason
	RetryAfter time.Duration
	Limit      int64
	Premium    bool
	Flags      []abuse.Flag
}

func (e *RateLimitError) Error() string {
	switch e.Reason {
	case LimitAbuse:
		return "license temporarily suspended due to unusual usage"
	case LimitHourly:
		return fmt.Sprintf("hourly limit of %d proposals reached", e.Limit)
	}
	return fmt.Sprintf("daily limit of %d proposals reached", e.Limit)
}

// LicenseInvalidError is returned for malformed or rejected license keys.
type LicenseInvalidError struct {
	Key          string
	Unregistered bool
}

func (e *LicenseInvalidError) Error() string {
	if e.Unregistered {
		return "license key is not registered"
	}
	return "license key has an invalid format"
}

// GenerationError wraps a failed provider call. Kind is llm.ErrAuth,
// llm.ErrQuota or llm.ErrUnknown.
type GenerationError struct {
	Kind error
	Hint string
	Err  error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindName is "auth", "quota" or "unknown".
func (e *GenerationError) KindName() string {
	switch e.Kind {
	case llm.ErrAuth:
		return "auth"
	case llm.ErrQuota:
		return "quota"
	}
	return "unknown"
}

// QuotaGuidance is shown when the provider reports missing credit.
const QuotaGuidance = `This usually means the provider account has no credits left, billing is not set up, or usage limits were exceeded.
Set up billing at https://platform.openai.com/account/billing/overview, create a new key at https://platform.openai.com/api-keys and try again.`
