package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/fingerprint"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

// HeaderLicenseKey and HeaderSessionID identify API callers.
const (
	HeaderLicenseKey = "X-License-Key"
	HeaderSessionID  = "X-Session-ID"
)

// APILicenseMiddleware builds the request context for API calls. The
// license key comes from X-License-Key or a bearer token. Callers without
// a key are anonymous and metered by their fingerprint. X-Session-ID only
// scopes their history, so rotating it does not reset the free quota.
func APILicenseMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := extractLicenseKeyFromHeader(c)
		if key != "" && !licensing.ValidFormat(licensing.NormalizeKey(key)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid_license", "message": "License key has an invalid format"})
		}

		usercontext.Set(c, usercontext.RequestContext{
			SessionID:     strings.TrimSpace(c.Get(HeaderSessionID)),
			Fingerprint:   fingerprint.FromRequest(c),
			LicenseKey:    key,
			ClientSession: true,
		})
		c.Locals(usercontext.KeyFromAPI, true)

		return c.Next()
	}
}

func extractLicenseKeyFromHeader(c *fiber.Ctx) string {
	key := strings.TrimSpace(c.Get(HeaderLicenseKey))
	if key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
