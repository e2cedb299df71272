package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/history"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

// HistoryController lists past proposals and serves share links.
type HistoryController struct {
	service *proposal.Service
	views   *counter.Counter
}

func NewHistoryController(service *proposal.Service, views *counter.Counter) *HistoryController {
	return &HistoryController{service: service, views: views}
}

// HandleHistory renders every proposal of the current session, newest first.
func (hc *HistoryController) HandleHistory(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	entries, err := hc.service.History(rc.SessionID, 0)
	if err != nil {
		return flashFailure(c, describeError(err), "/")
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	data := GetProposalController().layoutData(c, " | History")
	data["History"] = entries
	return c.Render("history", data, "layouts/main")
}

// HandleShared renders a shared proposal by its slug.
func (hc *HistoryController) HandleShared(c *fiber.Ctx) error {
	slug := c.Params("slug")
	entry, err := hc.service.Shared(slug)
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).Render("not_found", fiber.Map{"Title": "ProposalCraft AI | Not found"}, "layouts/main")
	}
	if err != nil {
		return flashFailure(c, describeError(err), "/")
	}

	if hc.views != nil {
		if err := hc.views.AddShareView(c.UserContext(), slug); err != nil {
			fiberlog.Warnf("[History] failed to count view for %s: %v", slug, err)
		}
	}

	data := GetProposalController().layoutData(c, " | Shared proposal")
	data["Entry"] = entry
	return c.Render("shared", data, "layouts/main")
}

var historyController *HistoryController

// InitializeHistoryController initializes the global history controller
func InitializeHistoryController(service *proposal.Service, views *counter.Counter) {
	historyController = NewHistoryController(service, views)
}

// GetHistoryController returns the global history controller instance
func GetHistoryController() *HistoryController {
	return historyController
}

func HandleHistory(c *fiber.Ctx) error {
	return GetHistoryController().HandleHistory(c)
}

func HandleShared(c *fiber.Ctx) error {
	return GetHistoryController().HandleShared(c)
}
