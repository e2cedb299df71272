package proposal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/history"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/llm"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/metrics"
	"github.com/go-playground/validator/v10"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

// Request is one proposal request as submitted by the form or the API.
type Request struct {
	SessionID     string `form:"-" json:"-"`
	LicenseKey    string `form:"-" json:"-"`
	Fingerprint   string `form:"-" json:"-"`
	ClientSession bool   `form:"-" json:"-"`

	Platform     string `form:"platform" json:"platform" validate:"required"`
	JobPosting   string `form:"job_post" json:"job_post" validate:"required,max=20000"`
	Skills       string `form:"skills" json:"skills" validate:"required,max=500"`
	Advantage    string `form:"advantage" json:"advantage" validate:"required,max=500"`
	Requirements string `form:"requirements" json:"requirements" validate:"max=500"`
	Model        string `form:"model" json:"model"`
	APIKey       string `form:"api_key" json:"api_key" validate:"required"`

	ResumeText string `form:"-" json:"resume_text,omitempty" validate:"max=200000"`
}

// Result is a successful generation.
type Result struct {
	Text     string
	Entry    *models.HistoryEntry
	Decision licensing.Decision
	Platform Platform
	Model    string
}

// Statistics is notified after each stored proposal.
type Statistics interface {
	Invalidate(ctx context.Context, now time.Time)
}

// Config wires a Service.
type Config struct {
	Gate        *licensing.Gate
	History     history.Store
	Generators  llm.Factory
	Credentials llm.Credentials
	Throttle    *rate.Limiter
	Timeout     time.Duration
	Statistics  Statistics
	// Location is the zone usage buckets are cut in. Nil reads APP_TIMEZONE.
	Location *time.Location
	Now      func() time.Time
}

// Service is the single entry point for generating proposals.
type Service struct {
	gate       *licensing.Gate
	history    history.Store
	generators llm.Factory
	creds      llm.Credentials
	throttle   *rate.Limiter
	timeout    time.Duration
	stats      Statistics
	now        func() time.Time
	validate   *validator.Validate
}

func NewService(cfg Config) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	s := &Service{
		gate:       cfg.Gate,
		history:    cfg.History,
		generators: cfg.Generators,
		creds:      cfg.Credentials,
		throttle:   cfg.Throttle,
		timeout:    cfg.Timeout,
		stats:      cfg.Statistics,
		now:        cfg.Now,
		validate:   v,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.now == nil {
		loc := cfg.Location
		if loc == nil {
			loc = env.Location()
		}
		s.now = func() time.Time { return time.Now().In(loc) }
	}
	if s.generators == nil {
		s.generators = llm.NewFactory(cfg.Credentials)
	}
	return s
}

// Normalize trims every input and fills defaults for model and credential.
func (s *Service) Normalize(req Request) Request {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.JobPosting = strings.TrimSpace(req.JobPosting)
	req.Skills = strings.TrimSpace(req.Skills)
	req.Advantage = strings.TrimSpace(req.Advantage)
	req.Requirements = strings.TrimSpace(req.Requirements)
	req.ResumeText = strings.TrimSpace(req.ResumeText)
	req.Model = strings.TrimSpace(req.Model)
	req.APIKey = strings.TrimSpace(req.APIKey)

	if req.Model == "" {
		req.Model = llm.DefaultModel
	}
	if req.APIKey == "" {
		req.APIKey = s.creds.KeyFor(req.Model)
	}
	return req
}

// Validate checks a normalized request.
func (s *Service) Validate(req Request) error {
	var fields []string

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	if req.Platform != "" {
		if _, ok := PlatformByID(req.Platform); !ok {
			fields = append(fields, "platform")
		}
	}
	if !llm.KnownModel(req.Model) {
		fields = append(fields, "model")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Generate validates req, asks the gate, calls the provider once and stores
// the result in the session history.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	req = s.Normalize(req)
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	platform, _ := PlatformByID(req.Platform)

	now := s.now()
	decision, err := s.gate.Authorize(ctx, licensing.Caller{
		LicenseKey:    req.LicenseKey,
		SessionID:     req.SessionID,
		Fingerprint:   req.Fingerprint,
		ClientSession: req.ClientSession,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !decision.Allowed {
		return nil, denial(decision)
	}

	text, err := s.call(ctx, platform, req)
	if err != nil {
		return nil, err
	}

	entry, err := history.NewEntry(history.Input{
		SessionID:     req.SessionID,
		Platform:      platform.ID,
		Model:         req.Model,
		Skills:        req.Skills,
		JobPosting:    req.JobPosting,
		GeneratedText: text,
		UsedResume:    req.ResumeText != "",
	}, now)
	if err != nil {
		return nil, err
	}
	if err := s.history.Append(entry); err != nil {
		// The text is still returned when storing fails.
		fiberlog.Errorf("[Proposal] failed to store history entry: %v", err)
	} else if s.stats != nil {
		s.stats.Invalidate(ctx, now)
	}

	return &Result{
		Text:     text,
		Entry:    entry,
		Decision: decision,
		Platform: platform,
		Model:    req.Model,
	}, nil
}

func (s *Service) call(ctx context.Context, platform Platform, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	gen, err := s.generators(ctx, req.Model, req.APIKey)
	if err == nil && s.throttle != nil {
		gen = llm.NewThrottled(gen, s.throttle)
	}
	var text string
	if err == nil {
		text, err = gen.Generate(ctx, llm.Request{
			SystemPrompt:    SystemPrompt(platform),
			UserPrompt:      UserPrompt(req),
			Model:           req.Model,
			Temperature:     llm.DefaultTemperature,
			MaxOutputTokens: llm.DefaultMaxOutputTokens,
		})
	}

	if err != nil {
		gerr := generationError(err)
		metrics.ObserveGeneration(platform.ID, req.Model, gerr.KindName(), time.Since(start))
		fiberlog.Errorf("[Proposal] %s generation failed: %v", req.Model, err)
		return "", gerr
	}

	metrics.ObserveGeneration(platform.ID, req.Model, "ok", time.Since(start))
	return text, nil
}

func generationError(err error) *GenerationError {
	kind := llm.ErrUnknown
	switch {
	case errors.Is(err, llm.ErrAuth):
		kind = llm.ErrAuth
	case errors.Is(err, llm.ErrQuota):
		kind = llm.ErrQuota
	}
	return &GenerationError{Kind: kind, Hint: llm.HintOf(err), Err: err}
}

func denial(d licensing.Decision) error {
	switch d.Reason {
	case licensing.ReasonInvalidLicense:
		return &LicenseInvalidError{Key: licensing.Mask(d.Identity)}
	case licensing.ReasonUnregisteredLicense:
		return &LicenseInvalidError{Key: licensing.Mask(d.Identity), Unregistered: true}
	case licensing.ReasonAbuse:
		return &RateLimitError{Reason: LimitAbuse, Flags: d.Flags}
	case licensing.ReasonHourlyLimit:
		return &RateLimitError{
			Reason:     LimitHourly,
			RetryAfter: d.Verdict.RetryAfter,
			Limit:      d.Verdict.Limit,
			Premium:    d.Plan.IsPremium(),
		}
	}
	return &RateLimitError{
		Reason:     LimitDaily,
		RetryAfter: d.Verdict.RetryAfter,
		Limit:      d.Verdict.Limit,
		Premium:    d.Plan.IsPremium(),
	}
}

// Limits returns the per-plan ceilings.
func (s *Service) Limits() entitlements.Table {
	return s.gate.Limits()
}

// Usage reports the caller's plan and remaining quota.
func (s *Service) Usage(ctx context.Context, caller licensing.Caller) (licensing.Status, error) {
	return s.gate.Status(ctx, caller, s.now())
}

// History returns the newest limit entries of a session, oldest first.
func (s *Service) History(sessionID string, limit int) ([]models.HistoryEntry, error) {
	return s.history.ListBySession(sessionID, limit)
}

// Shared returns an entry by its share slug.
func (s *Service) Shared(slug string) (*models.HistoryEntry, error) {
	return s.history.GetByShareSlug(slug)
}
