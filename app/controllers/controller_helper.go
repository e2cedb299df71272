package controllers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/proposal"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/upload"
)

// failure is the transport-independent description of a failed request.
// Page handlers show Message as flash, API handlers return it as JSON.
type failure struct {
	Status     int
	Code       string
	Message    string
	Hint       string
	RetryAfter time.Duration
}

func describeError(err error) failure {
	var (
		verr *proposal.ValidationError
		lerr *proposal.LicenseInvalidError
		rerr *proposal.RateLimitError
		gerr *proposal.GenerationError
		xerr *resume.ExtractError
	)

	switch {
	case errors.As(err, &verr):
		return failure{
			Status:  fiber.StatusUnprocessableEntity,
			Code:    "validation_failed",
			Message: "Please fill in all fields: " + strings.Join(verr.Fields, ", "),
		}

	case errors.As(err, &lerr):
		if lerr.Unregistered {
			return failure{Status: fiber.StatusForbidden, Code: "unregistered_license", Message: "This license key is not registered."}
		}
		return failure{Status: fiber.StatusForbidden, Code: "invalid_license", Message: "This license key has an invalid format."}

	case errors.As(err, &rerr):
		return rateLimitFailure(rerr)

	case errors.As(err, &gerr):
		return generationFailure(gerr)

	case errors.As(err, &xerr):
		return failure{Status: fiber.StatusUnprocessableEntity, Code: "resume_unreadable", Message: xerr.UserMessage()}

	case errors.Is(err, errResumeTooLarge):
		return failure{Status: fiber.StatusRequestEntityTooLarge, Code: "resume_too_large", Message: "Your resume file is too large."}

	case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrScriptableType), errors.Is(err, upload.ErrTypeMismatch):
		return failure{Status: fiber.StatusUnsupportedMediaType, Code: "unsupported_resume", Message: "Please upload your resume as PDF, DOCX or plain text."}
	}

	fiberlog.Errorf("[Controller] unexpected error: %v", err)
	return failure{Status: fiber.StatusInternalServerError, Code: "internal_error", Message: "Something went wrong. Please try again."}
}

func rateLimitFailure(err *proposal.RateLimitError) failure {
	f := failure{Status: fiber.StatusTooManyRequests, RetryAfter: err.RetryAfter}

	switch err.Reason {
	case proposal.LimitAbuse:
		f.Code = "abuse"
		f.Message = "Unusual activity was detected for this license. It is temporarily suspended, please contact support."
	case proposal.LimitHourly:
		f.Code = "hourly_limit"
		f.Message = fmt.Sprintf("You reached the limit of %d proposals per hour. Try again in %s.", err.Limit, humanDuration(err.RetryAfter))
	default:
		f.Code = "daily_limit"
		f.Message = fmt.Sprintf("You reached your daily limit of %d proposals. Try again in %s.", err.Limit, humanDuration(err.RetryAfter))
		if !err.Premium {
			f.Hint = "Activate a premium license for a higher daily limit."
		}
	}
	return f
}

func generationFailure(err *proposal.GenerationError) failure {
	switch err.KindName() {
	case "auth":
		return failure{
			Status:  fiber.StatusUnauthorized,
			Code:    "provider_auth",
			Message: "The API key was rejected by the provider. Please check your key.",
		}
	case "quota":
		return failure{
			Status:  fiber.StatusPaymentRequired,
			Code:    "provider_quota",
			Message: "API key issue detected.",
			Hint:    proposal.QuotaGuidance,
		}
	}
	return failure{
		Status:  fiber.StatusBadGateway,
		Code:    "provider_error",
		Message: "Error generating proposal: " + err.Err.Error(),
		Hint:    err.Hint,
	}
}

// writeAPIError sends f as JSON, adding Retry-After for rate limits.
func writeAPIError(c *fiber.Ctx, f failure) error {
	if f.RetryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(f.RetryAfter)))
	}
	body := fiber.Map{"error": f.Code, "message": f.Message}
	if f.Hint != "" {
		body["hint"] = f.Hint
	}
	return c.Status(f.Status).JSON(body)
}

func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// humanDuration renders a wait time like "3h 12m" or "45s".
func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "a moment"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
