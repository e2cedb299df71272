package apiv1

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const specPath = "../../../public/docs/v1/openapi.yml"

func newValidatedApp(t *testing.T) *fiber.App {
	t.Helper()

	doc, err := LoadSpec(specPath)
	require.NoError(t, err)
	validate, err := RequestValidator(doc)
	require.NoError(t, err)

	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	app := fiber.New()
	v1 := app.Group("/api/v1", validate)
	v1.Post("/proposals", ok)
	v1.Get("/history", ok)
	v1.Get("/internal", ok)
	return app
}

func TestRequestValidator(t *testing.T) {
	app := newValidatedApp(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{
			name:   "valid proposal",
			method: "POST", path: "/api/v1/proposals",
			body: `{"platform":"upwork","job_post":"Need Go","skills":"Go","advantage":"Fast"}`,
			want: fiber.StatusNoContent,
		},
		{
			name:   "missing skills",
			method: "POST", path: "/api/v1/proposals",
			body: `{"platform":"upwork","job_post":"Need Go","advantage":"Fast"}`,
			want: fiber.StatusBadRequest,
		},
		{
			name:   "unknown platform",
			method: "POST", path: "/api/v1/proposals",
			body: `{"platform":"myspace","job_post":"Need Go","skills":"Go","advantage":"Fast"}`,
			want: fiber.StatusBadRequest,
		},
		{
			name:   "history without session",
			method: "GET", path: "/api/v1/history",
			want: fiber.StatusBadRequest,
		},
		{
			name:   "history limit out of range",
			method: "GET", path: "/api/v1/history?limit=500",
			headers: map[string]string{"X-Session-ID": "abc"},
			want:    fiber.StatusBadRequest,
		},
		{
			name:   "history",
			method: "GET", path: "/api/v1/history?limit=5",
			headers: map[string]string{"X-Session-ID": "abc"},
			want:    fiber.StatusNoContent,
		},
		{
			name:   "undocumented route passes",
			method: "GET", path: "/api/v1/internal",
			want: fiber.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestGetPing(t *testing.T) {
	app := fiber.New()
	RegisterHandlers(app.Group("/api/v1"), NewAPIServer())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
