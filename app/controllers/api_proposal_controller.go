package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ProposalCraft/app/models"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

const apiHistoryMaxLimit = 100

type apiWindowUsage struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

type apiLicense struct {
	Key     string `json:"key"`
	Tier    string `json:"tier"`
	Expires string `json:"expires"`
	Expired bool   `json:"expired"`
}

type apiUsageResponse struct {
	Plan            string         `json:"plan"`
	Anonymous       bool           `json:"anonymous"`
	License         *apiLicense    `json:"license,omitempty"`
	Flags           []string       `json:"flags,omitempty"`
	Daily           apiWindowUsage `json:"daily"`
	Hourly          apiWindowUsage `json:"hourly"`
	ResetsInSeconds int            `json:"resets_in_seconds"`
}

type apiProposalResponse struct {
	ID        string           `json:"id"`
	Proposal  string           `json:"proposal"`
	Platform  string           `json:"platform"`
	Model     string           `json:"model"`
	Premium   bool             `json:"premium"`
	ShareURL  string           `json:"share_url"`
	CreatedAt time.Time        `json:"created_at"`
	Usage     apiUsageResponse `json:"usage"`
}

func usageResponse(s licensing.Status) apiUsageResponse {
	resp := apiUsageResponse{
		Plan:      string(s.Plan),
		Anonymous: s.Anonymous,
		Daily: apiWindowUsage{
			Used:      s.Usage.DailyUsed,
			Limit:     s.Usage.DailyLimit,
			Remaining: s.Usage.DailyRemaining(),
		},
		Hourly: apiWindowUsage{
			Used:      s.Usage.HourlyUsed,
			Limit:     s.Usage.HourlyLimit,
			Remaining: s.Usage.HourlyRemaining(),
		},
		ResetsInSeconds: retryAfterSeconds(s.Usage.ResetsIn),
	}
	if s.License != nil {
		resp.License = &apiLicense{
			Key:     licensing.Mask(s.License.Key),
			Tier:    string(s.License.Tier),
			Expires: s.License.Expiry.String(),
			Expired: s.Expired,
		}
	}
	for _, f := range s.Flags {
		resp.Flags = append(resp.Flags, string(f))
	}
	return resp
}

// HandleAPIGenerate creates a proposal from a JSON body.
func (pc *ProposalController) HandleAPIGenerate(c *fiber.Ctx) error {
	var req proposal.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}

	rc := usercontext.Get(c)
	req.SessionID = rc.SessionID
	req.Fingerprint = rc.Fingerprint
	req.LicenseKey = rc.LicenseKey
	req.ClientSession = rc.ClientSession

	res, err := pc.service.Generate(c.UserContext(), req)
	if err != nil {
		return writeAPIError(c, describeError(err))
	}

	resp := apiProposalResponse{
		ID:        res.Entry.ID,
		Proposal:  res.Text,
		Platform:  res.Platform.ID,
		Model:     res.Model,
		Premium:   res.Decision.IsPremium,
		ShareURL:  shareURL(c, res.Entry.ShareSlug),
		CreatedAt: res.Entry.CreatedAt,
	}
	if status, err := pc.service.Usage(c.UserContext(), rc.Caller()); err == nil {
		resp.Usage = usageResponse(status)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleAPIUsage reports plan and remaining quota of the caller.
func (pc *ProposalController) HandleAPIUsage(c *fiber.Ctx) error {
	status, err := pc.service.Usage(c.UserContext(), usercontext.GetCaller(c))
	if err != nil {
		return writeAPIError(c, describeError(err))
	}
	return c.JSON(usageResponse(status))
}

// HandleAPIHistory lists proposals of the X-Session-ID session.
func (pc *ProposalController) HandleAPIHistory(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	if rc.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "X-Session-ID header is required"})
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > apiHistoryMaxLimit {
		limit = apiHistoryMaxLimit
	}

	entries, err := pc.service.History(rc.SessionID, limit)
	if err != nil {
		return writeAPIError(c, describeError(err))
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}

func HandleAPIGenerate(c *fiber.Ctx) error {
	return GetProposalController().HandleAPIGenerate(c)
}

func HandleAPIUsage(c *fiber.Ctx) error {
	return GetProposalController().HandleAPIUsage(c)
}

func HandleAPIHistory(c *fiber.Ctx) error {
	return GetProposalController().HandleAPIHistory(c)
}
