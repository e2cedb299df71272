package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
)

// HandleFlashUploadTooLarge sets a flash error and redirects to home
func HandleFlashUploadTooLarge(c *fiber.Ctx) error {
	maxMB := env.GetEnvInt("RESUME_MAX_BYTES", resume.DefaultMaxBytes) >> 20
	fm := fiber.Map{
		"type":    "error",
		"message": fmt.Sprintf("Your resume is too large. The maximum size is %d MB.", maxMB),
	}
	return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
}

// HandleFlashSessionExpired is the target of failed CSRF checks.
func HandleFlashSessionExpired(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type":    "error",
		"message": "Your session expired. Please submit the form again.",
	}
	return flash.WithError(c, fm).Redirect("/", fiber.StatusSeeOther)
}
