package router

import (
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/middleware"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
	opts Options
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore(h.opts.SessionBackend)

	// Resolve session id, fingerprint and license key for every page
	app.Use(middleware.SessionIdentityMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(opts Options) *HttpRouter {
	return &HttpRouter{opts: opts}
}
