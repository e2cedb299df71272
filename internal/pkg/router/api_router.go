package router

import (
	"log"
	"time"

	apiv1 "github.com/ManuelReschke/ProposalCraft/internal/api/v1"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	opts Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	maxPerMinute := h.opts.APIMaxPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        maxPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too_many_requests", "message": "Slow down"})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	handlers := []fiber.Handler{middleware.APILicenseMiddleware()}
	if h.opts.SpecPath != "" {
		doc, err := apiv1.LoadSpec(h.opts.SpecPath)
		if err == nil {
			var validate fiber.Handler
			validate, err = apiv1.RequestValidator(doc)
			if err == nil {
				handlers = append(handlers, validate)
			}
		}
		if err != nil {
			log.Printf("[Router] API request validation disabled: %v", err)
		}
	}

	// API v1 routes
	v1 := api.Group("/v1", handlers...)
	apiv1.RegisterHandlers(v1, apiv1.NewAPIServer())
}

func NewApiRouter(opts Options) *ApiRouter {
	return &ApiRouter{opts: opts}
}
