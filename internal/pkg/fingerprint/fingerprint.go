// Package fingerprint derives a stable, non-reversible client fingerprint
// from request attributes.
package fingerprint

import (
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of a fingerprint before hex encoding.
const Size = 16

// Compute hashes the client IP, user agent and accepted languages. Equal
// inputs always give the same fingerprint.
func Compute(ip, userAgent, acceptLanguage string) string {
	h, _ := blake2b.New(Size, nil)
	for _, part := range []string{ip, userAgent, acceptLanguage} {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FromRequest computes the fingerprint of the current request.
func FromRequest(c *fiber.Ctx) string {
	return Compute(ClientIP(c), c.Get(fiber.HeaderUserAgent), c.Get(fiber.HeaderAcceptLanguage))
}

// ClientIP returns the originating client address, honouring Cloudflare and
// standard proxy headers before falling back to the socket address.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For can contain a list of IPs, the first one is the client
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	return strings.TrimPrefix(c.IP(), "::ffff:")
}
