package usercontext

import (
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/licensing"
	"github.com/gofiber/fiber/v2"
)

// RequestContext identifies the caller of the current request.
type RequestContext struct {
	SessionID   string `json:"session_id"`
	Fingerprint string `json:"-"`
	LicenseKey  string `json:"-"`
	// ClientSession is set when SessionID came from a request header.
	ClientSession bool `json:"-"`
}

// HasLicense reports whether a license key is attached to the request.
func (r RequestContext) HasLicense() bool {
	return r.LicenseKey != ""
}

// Caller converts the context into the gate's caller description.
func (r RequestContext) Caller() licensing.Caller {
	return licensing.Caller{
		LicenseKey:    r.LicenseKey,
		SessionID:     r.SessionID,
		Fingerprint:   r.Fingerprint,
		ClientSession: r.ClientSession,
	}
}

// Set stores rc for the rest of the request.
func Set(c *fiber.Ctx, rc RequestContext) {
	c.Locals(KeyRequestContext, rc)
}

// Get retrieves the request context from fiber context.
// Returns an empty context if none is set
func Get(c *fiber.Ctx) RequestContext {
	if rc, ok := c.Locals(KeyRequestContext).(RequestContext); ok {
		return rc
	}
	return RequestContext{}
}

// GetCaller is shorthand for Get(c).Caller().
func GetCaller(c *fiber.Ctx) licensing.Caller {
	return Get(c).Caller()
}
