package controllers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/llm"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/statistics"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/upload"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

const recentHistoryLimit = 5

var errResumeTooLarge = errors.New("resume exceeds the upload limit")

// ProposalController serves the proposal form and the generation endpoints.
type ProposalController struct {
	service        *proposal.Service
	stats          *statistics.Service
	maxResumeBytes int64
	now            func() time.Time
}

func NewProposalController(service *proposal.Service, stats *statistics.Service, maxResumeBytes int64) *ProposalController {
	if maxResumeBytes <= 0 {
		maxResumeBytes = resume.DefaultMaxBytes
	}
	return &ProposalController{
		service:        service,
		stats:          stats,
		maxResumeBytes: maxResumeBytes,
		now:            time.Now,
	}
}

// HandleStart renders the form with license status, usage and the latest
// history of the session.
func (pc *ProposalController) HandleStart(c *fiber.Ctx) error {
	rc := usercontext.Get(c)
	ctx := c.UserContext()

	data := pc.layoutData(c, "")
	data["Platforms"] = proposal.Platforms
	data["Models"] = llm.Models
	data["DefaultModel"] = llm.DefaultModel
	data["ServerKey"] = env.GetEnv("OPENAI_API_KEY", "") != ""

	entries, err := pc.service.History(rc.SessionID, recentHistoryLimit)
	if err != nil {
		fiberlog.Warnf("[Proposal] failed to load history: %v", err)
	}
	data["History"] = entries

	if pc.stats != nil {
		data["Stats"] = pc.stats.Get(ctx, pc.now())
	}

	return c.Render("index", data, "layouts/main")
}

// HandleGenerate handles the form submit.
func (pc *ProposalController) HandleGenerate(c *fiber.Ctx) error {
	req, err := pc.parseRequest(c)
	if err != nil {
		return flashFailure(c, describeError(err), "/")
	}

	res, err := pc.service.Generate(c.UserContext(), req)
	if err != nil {
		return flashFailure(c, describeError(err), "/")
	}

	data := pc.layoutData(c, " | Your proposal")
	data["Result"] = res
	data["ShareURL"] = shareURL(c, res.Entry.ShareSlug)
	return c.Render("result", data, "layouts/main")
}

// HandleHelp renders the setup and usage guide.
func (pc *ProposalController) HandleHelp(c *fiber.Ctx) error {
	data := pc.layoutData(c, " | Help")
	data["Models"] = llm.Models
	data["Limits"] = pc.service.Limits()
	return c.Render("help", data, "layouts/main")
}

// parseRequest reads the form including an optional resume upload and
// attaches the caller identity.
func (pc *ProposalController) parseRequest(c *fiber.Ctx) (proposal.Request, error) {
	var req proposal.Request
	if err := c.BodyParser(&req); err != nil {
		return req, &proposal.ValidationError{Fields: []string{"form"}}
	}

	rc := usercontext.Get(c)
	req.SessionID = rc.SessionID
	req.Fingerprint = rc.Fingerprint
	req.LicenseKey = rc.LicenseKey

	if fh, err := c.FormFile("resume"); err == nil && fh != nil && fh.Size > 0 {
		text, err := pc.readResume(c.UserContext(), fh)
		if err != nil {
			return req, err
		}
		req.ResumeText = text
	}
	return req, nil
}

func (pc *ProposalController) readResume(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh.Size > pc.maxResumeBytes {
		return "", errResumeTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, pc.maxResumeBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > pc.maxResumeBytes {
		return "", errResumeTooLarge
	}

	head := data
	if len(head) > upload.SniffLen {
		head = head[:upload.SniffLen]
	}
	kind, err := upload.ValidateResumeBySniff(fh.Filename, head)
	if err != nil {
		return "", err
	}
	return resume.Extract(ctx, data, kind)
}

// layoutData collects the values every page of the main layout needs.
func (pc *ProposalController) layoutData(c *fiber.Ctx, title string) fiber.Map {
	rc := usercontext.Get(c)
	data := fiber.Map{
		"Title": "ProposalCraft AI" + title,
		"Flash": flash.Get(c),
		"CSRF":  c.Locals(usercontext.KeyCSRF),
		"IsDev": env.IsDev(),
	}

	status, err := pc.service.Usage(c.UserContext(), rc.Caller())
	if err != nil {
		fiberlog.Warnf("[Proposal] failed to load usage: %v", err)
		return data
	}
	data["Status"] = status
	data["ResetsIn"] = humanDuration(status.Usage.ResetsIn)
	if status.License != nil {
		data["MaskedKey"] = licensing.Mask(status.License.Key)
	} else if rc.HasLicense() {
		data["MaskedKey"] = licensing.Mask(licensing.NormalizeKey(rc.LicenseKey))
	}
	return data
}

func shareURL(c *fiber.Ctx, slug string) string {
	return c.BaseURL() + "/p/" + slug
}

// flashFailure shows f on the next page load.
func flashFailure(c *fiber.Ctx, f failure, to string) error {
	fm := fiber.Map{
		"type":    "error",
		"message": f.Message,
	}
	if f.Hint != "" {
		fm["hint"] = f.Hint
	}
	return flash.WithError(c, fm).Redirect(to, fiber.StatusSeeOther)
}

var proposalController *ProposalController

// InitializeProposalController initializes the global proposal controller
func InitializeProposalController(service *proposal.Service, stats *statistics.Service, maxResumeBytes int64) {
	proposalController = NewProposalController(service, stats, maxResumeBytes)
}

// GetProposalController returns the global proposal controller instance
func GetProposalController() *ProposalController {
	return proposalController
}

func HandleStart(c *fiber.Ctx) error {
	return GetProposalController().HandleStart(c)
}

func HandleGenerate(c *fiber.Ctx) error {
	return GetProposalController().HandleGenerate(c)
}

func HandleHelp(c *fiber.Ctx) error {
	return GetProposalController().HandleHelp(c)
}
