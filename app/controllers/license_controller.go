package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/session"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

// LicenseController attaches license keys to the browser session.
type LicenseController struct {
	service            *proposal.Service
	rejectUnregistered bool
}

func NewLicenseController(service *proposal.Service, rejectUnregistered bool) *LicenseController {
	return &LicenseController{service: service, rejectUnregistered: rejectUnregistered}
}

// HandleActivate validates the submitted key and stores it in the session.
func (lc *LicenseController) HandleActivate(c *fiber.Ctx) error {
	key := licensing.NormalizeKey(c.FormValue("license_key"))
	if !licensing.ValidFormat(key) {
		return flashFailure(c, failure{Message: "This license key has an invalid format. Keys start with " + licensing.KeyPrefix}, "/")
	}

	caller := usercontext.GetCaller(c)
	caller.LicenseKey = key
	status, err := lc.service.Usage(c.UserContext(), caller)
	if err != nil {
		return flashFailure(c, describeError(err), "/")
	}

	if status.License == nil && lc.rejectUnregistered {
		return flashFailure(c, failure{Message: "This license key is not registered."}, "/")
	}

	if err := session.SetSessionValue(c, session.KeyLicenseKey, key); err != nil {
		fiberlog.Errorf("[License] failed to store key in session: %v", err)
		return flashFailure(c, failure{Message: "Could not activate the license. Please try again."}, "/")
	}

	fm := fiber.Map{"type": "success"}
	switch {
	case status.License == nil:
		fm["type"] = "info"
		fm["message"] = "License key saved, but it is not registered. Free tier limits apply."
	case status.Expired:
		fm["type"] = "info"
		fm["message"] = fmt.Sprintf("This license expired on %s. Free tier limits apply.", status.License.Expiry)
	default:
		fm["message"] = fmt.Sprintf("%s license activated. Valid until %s.", status.License.Tier.Title(), status.License.Expiry)
	}
	return flash.WithSuccess(c, fm).Redirect("/", fiber.StatusSeeOther)
}

// HandleDeactivate removes the license key from the session.
func (lc *LicenseController) HandleDeactivate(c *fiber.Ctx) error {
	if err := session.DeleteSessionValue(c, session.KeyLicenseKey); err != nil {
		fiberlog.Errorf("[License] failed to remove key from session: %v", err)
	}
	fm := fiber.Map{
		"type":    "info",
		"message": "License removed. Free tier limits apply.",
	}
	return flash.WithInfo(c, fm).Redirect("/", fiber.StatusSeeOther)
}

var licenseController *LicenseController

// InitializeLicenseController initializes the global license controller
func InitializeLicenseController(service *proposal.Service, rejectUnregistered bool) {
	licenseController = NewLicenseController(service, rejectUnregistered)
}

// GetLicenseController returns the global license controller instance
func GetLicenseController() *LicenseController {
	return licenseController
}

func HandleLicenseActivate(c *fiber.Ctx) error {
	return GetLicenseController().HandleActivate(c)
}

func HandleLicenseDeactivate(c *fiber.Ctx) error {
	return GetLicenseController().HandleDeactivate(c)
}
