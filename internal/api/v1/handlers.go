package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/ProposalCraft/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// PostProposals generates a proposal for the caller identified by the
// license middleware.
func (s *APIServer) PostProposals(c *fiber.Ctx) error {
	return controllers.HandleAPIGenerate(c)
}

// GetUsage returns plan and remaining quota.
func (s *APIServer) GetUsage(c *fiber.Ctx) error {
	return controllers.HandleAPIUsage(c)
}

// GetHistory returns the proposals of the X-Session-ID session.
func (s *APIServer) GetHistory(c *fiber.Ctx) error {
	return controllers.HandleAPIHistory(c)
}
