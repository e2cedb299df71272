package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Options configures the installed routers.
type Options struct {
	// SessionBackend is "redis" or "memory".
	SessionBackend string
	// SpecPath points at the OpenAPI document used to validate API requests.
	SpecPath string
	// APIMaxPerMinute caps requests per client IP on /api.
	APIMaxPerMinute int
}

func InstallRouter(app *fiber.App, opts Options) {
	// Install HttpRouter first to initialize the session store and the
	// identity middleware, then the API routes which bring their own.
	setup(app, NewHttpRouter(opts), NewApiRouter(opts))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
