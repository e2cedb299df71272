package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/abuse"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/entitlements"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/history"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/llm"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/middleware"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/ratelimit"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/session"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/upload"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usage"
)

const fakeProposal = "## Proposal\nDear client, I can help."

type testEnv struct {
	app     *fiber.App
	failure error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "dev")

	te := &testEnv{}

	reg, err := licensing.NewStaticRegistry(licensing.DefaultKeys)
	require.NoError(t, err)
	gate := licensing.NewGate(reg,
		usage.NewLedger(usage.NewMemoryStore()),
		abuse.NewDetector(abuse.DefaultThresholds),
		ratelimit.NewLimiter(ratelimit.NewMemoryStore(), entitlements.DefaultTable()))

	svc := proposal.NewService(proposal.Config{
		Gate:    gate,
		History: history.NewMemoryStore(),
		Generators: func(ctx context.Context, model, apiKey string) (llm.Generator, error) {
			return llm.GeneratorFunc(func(ctx context.Context, req llm.Request) (string, error) {
				if te.failure != nil {
					return "", te.failure
				}
				return fakeProposal, nil
			}), nil
		},
		Credentials: llm.Credentials{OpenAIKey: "sk-test"},
	})

	InitializeProposalController(svc, nil, 1<<10)
	InitializeLicenseController(svc, false)
	InitializeHistoryController(svc, nil)
	session.NewSessionStore("memory")

	app := fiber.New(fiber.Config{Views: html.New("../../views", ".html")})
	app.Use(middleware.SessionIdentityMiddleware)
	app.Get("/", HandleStart)
	app.Get("/help", HandleHelp)
	app.Get("/history", HandleHistory)
	app.Get("/p/:slug", HandleShared)
	app.Post("/generate", HandleGenerate)
	app.Post("/license/activate", HandleLicenseActivate)
	app.Post("/license/deactivate", HandleLicenseDeactivate)

	api := app.Group("/api/v1", middleware.APILicenseMiddleware())
	api.Post("/proposals", HandleAPIGenerate)
	api.Get("/usage", HandleAPIUsage)
	api.Get("/history", HandleAPIHistory)

	te.app = app
	return te
}

func (te *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := te.app.Test(req, 5000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func apiRequest(method, path, body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

const validJSON = `{"platform":"upwork","job_post":"Need a Go developer","skills":"Go, Redis","advantage":"Shipped billing systems"}`

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "session_id" {
			return c.Value
		}
	}
	return ""
}

func formRequest(path string, values url.Values, cookie string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.Header.Set("Cookie", "session_id="+cookie)
	}
	return req
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &proposal.ValidationError{Fields: []string{"skills"}}, 422, "validation_failed"},
		{"invalid license", &proposal.LicenseInvalidError{Key: "BAD"}, 403, "invalid_license"},
		{"unregistered license", &proposal.LicenseInvalidError{Unregistered: true}, 403, "unregistered_license"},
		{"daily", &proposal.RateLimitError{Reason: proposal.LimitDaily, Limit: 5, RetryAfter: time.Hour}, 429, "daily_limit"},
		{"hourly", &proposal.RateLimitError{Reason: proposal.LimitHourly, Limit: 10, RetryAfter: time.Minute}, 429, "hourly_limit"},
		{"abuse", &proposal.RateLimitError{Reason: proposal.LimitAbuse}, 429, "abuse"},
		{"auth", &proposal.GenerationError{Kind: llm.ErrAuth, Err: errors.New("bad key")}, 401, "provider_auth"},
		{"quota", &proposal.GenerationError{Kind: llm.ErrQuota, Err: errors.New("insufficient_quota")}, 402, "provider_quota"},
		{"unknown", &proposal.GenerationError{Kind: llm.ErrUnknown, Err: errors.New("boom")}, 502, "provider_error"},
		{"resume", &resume.ExtractError{Kind: resume.KindPDF, Failure: resume.FailureEmpty}, 422, "resume_unreadable"},
		{"resume type", upload.ErrTypeMismatch, 415, "unsupported_resume"},
		{"resume size", errResumeTooLarge, 413, "resume_too_large"},
		{"other", errors.New("db down"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := describeError(tt.err)
			assert.Equal(t, tt.status, f.Status)
			assert.Equal(t, tt.code, f.Code)
			assert.NotEmpty(t, f.Message)
		})
	}

	f := describeError(&proposal.RateLimitError{Reason: proposal.LimitDaily, Limit: 5, RetryAfter: time.Hour})
	assert.Equal(t, time.Hour, f.RetryAfter)
	assert.NotEmpty(t, f.Hint, "free users are pointed at premium")

	f = describeError(&proposal.GenerationError{Kind: llm.ErrQuota, Err: errors.New("429")})
	assert.Equal(t, proposal.QuotaGuidance, f.Hint)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "a moment", humanDuration(0))
	assert.Equal(t, "45s", humanDuration(45*time.Second))
	assert.Equal(t, "12m", humanDuration(12*time.Minute))
	assert.Equal(t, "3h 5m", humanDuration(3*time.Hour+5*time.Minute))
	assert.Equal(t, 61, retryAfterSeconds(60*time.Second+time.Millisecond))
}

func TestAPIGenerateUntilDailyLimit(t *testing.T) {
	te := newTestEnv(t)
	headers := map[string]string{"X-Session-ID": "api-client"}

	for i := 0; i < 5; i++ {
		resp, body := te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, headers))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)

		var out apiProposalResponse
		require.NoError(t, json.Unmarshal([]byte(body), &out))
		assert.Equal(t, fakeProposal, out.Proposal)
		assert.Equal(t, "upwork", out.Platform)
		assert.False(t, out.Premium)
		assert.Equal(t, int64(i+1), out.Usage.Daily.Used)
		assert.Contains(t, out.ShareURL, "/p/")
	}

	resp, body := te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, headers))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, `"error":"daily_limit"`)
	retry, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)

	// a fresh X-Session-ID from the same client does not reset the quota
	resp, body = te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{"X-Session-ID": "rotated"}))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, `"error":"daily_limit"`)

	// another client is unaffected
	resp, _ = te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{
		"X-Session-ID": "other",
		"User-Agent":   "curl/8.5.0",
	}))
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestAPIGenerateProviderFailures(t *testing.T) {
	te := newTestEnv(t)

	te.failure = &llm.APIError{Provider: "openai", Status: 401, Message: "Incorrect API key", Kind: llm.ErrAuth}
	resp, body := te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{"X-Session-ID": "a"}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "provider_auth")

	te.failure = &llm.APIError{Provider: "openai", Status: 429, Message: "insufficient_quota", Kind: llm.ErrQuota}
	resp, body = te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{"X-Session-ID": "b"}))
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
	assert.Contains(t, body, "billing")

	te.failure = errors.New("connection reset")
	resp, _ = te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{"X-Session-ID": "c"}))
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestAPIValidationAndLicense(t *testing.T) {
	te := newTestEnv(t)

	resp, body := te.do(t, apiRequest("POST", "/api/v1/proposals", `{"platform":"upwork"}`, nil))
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "job_post")

	resp, _ = te.do(t, apiRequest("POST", "/api/v1/proposals", `{not json`, nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, map[string]string{"X-License-Key": "BADKEY"}))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAPIUsage(t *testing.T) {
	te := newTestEnv(t)

	resp, body := te.do(t, apiRequest("GET", "/api/v1/usage", "", map[string]string{"X-License-Key": "PROPOSAL-2024-LIFE-WF5SFN"}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out apiUsageResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "premium", out.Plan)
	assert.False(t, out.Anonymous)
	require.NotNil(t, out.License)
	assert.Equal(t, "lifetime", out.License.Tier)
	assert.Equal(t, "2099-12-31", out.License.Expires)
	assert.NotContains(t, out.License.Key, "WF5S")
	assert.Equal(t, int64(100), out.Daily.Limit)
	assert.Equal(t, int64(10), out.Hourly.Limit)

	resp, body = te.do(t, apiRequest("GET", "/api/v1/usage", "", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "free", out.Plan)
	assert.True(t, out.Anonymous)
	assert.Equal(t, int64(5), out.Daily.Remaining)
}

func TestAPIHistory(t *testing.T) {
	te := newTestEnv(t)

	resp, _ := te.do(t, apiRequest("GET", "/api/v1/history", "", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	headers := map[string]string{"X-Session-ID": "hist"}
	te.do(t, apiRequest("POST", "/api/v1/proposals", validJSON, headers))

	resp, body := te.do(t, apiRequest("GET", "/api/v1/history", "", headers))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"count":1`)
	assert.Contains(t, body, "Need a Go developer")
}

func TestPagesFlow(t *testing.T) {
	te := newTestEnv(t)

	resp, body := te.do(t, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Tell me about the job")
	assert.Contains(t, body, "0 / 5")
	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)

	form := url.Values{
		"platform":  {"fiverr"},
		"job_post":  {"Logo design for a bakery"},
		"skills":    {"Illustrator"},
		"advantage": {"Ten years of branding"},
	}
	resp, body = te.do(t, formRequest("/generate", form, cookie))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dear client, I can help.")
	assert.Contains(t, body, "Fiverr")

	req := httptest.NewRequest("GET", "/history", nil)
	req.Header.Set("Cookie", "session_id="+cookie)
	resp, body = te.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logo design for a bakery")

	start := strings.Index(body, "/p/")
	require.Greater(t, start, 0)
	slug := body[start+3 : start+3+10]

	resp, body = te.do(t, httptest.NewRequest("GET", "/p/"+slug, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dear client, I can help.")

	resp, _ = te.do(t, httptest.NewRequest("GET", "/p/doesnotexist", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGenerateRedirectsOnValidationError(t *testing.T) {
	te := newTestEnv(t)

	resp, _ := te.do(t, formRequest("/generate", url.Values{"platform": {"upwork"}}, ""))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLicenseActivation(t *testing.T) {
	te := newTestEnv(t)

	resp, _ := te.do(t, httptest.NewRequest("GET", "/", nil))
	cookie := sessionCookie(resp)
	require.NotEmpty(t, cookie)

	resp, _ = te.do(t, formRequest("/license/activate", url.Values{"license_key": {"BADKEY"}}, cookie))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, _ = te.do(t, formRequest("/license/activate", url.Values{"license_key": {" proposal-2024-life-wf5sfn "}}, cookie))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "session_id="+cookie)
	resp, body := te.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Premium")
	assert.Contains(t, body, "0 / 100")
	assert.Contains(t, body, "5SFN")

	resp, _ = te.do(t, formRequest("/license/deactivate", url.Values{}, cookie))
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "session_id="+cookie)
	_, body = te.do(t, req)
	assert.Contains(t, body, "0 / 5")
}

func TestHelpPage(t *testing.T) {
	te := newTestEnv(t)

	resp, body := te.do(t, httptest.NewRequest("GET", "/help", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Free: 5 proposals per day")
	assert.Contains(t, body, "Premium: 100 proposals per day")
}
