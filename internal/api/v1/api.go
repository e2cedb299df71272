// Package apiv1 exposes the JSON API described by public/docs/v1/openapi.yml.
package apiv1

import (
	"github.com/gofiber/fiber/v2"
)

// Pong defines model for Pong.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (POST /proposals)
	PostProposals(c *fiber.Ctx) error
	// (GET /usage)
	GetUsage(c *fiber.Ctx) error
	// (GET /history)
	GetHistory(c *fiber.Ctx) error
}

// RegisterHandlers adds each server route to the router.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Post("/proposals", si.PostProposals)
	router.Get("/usage", si.GetUsage)
	router.Get("/history", si.GetHistory)
}
