package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/fingerprint"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/session"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/usercontext"
)

// SessionIdentityMiddleware resolves the browser session into a request
// context for every page request. A session id is minted on first visit and
// the activated license key, if any, is read from the session.
func SessionIdentityMiddleware(c *fiber.Ctx) error {
	// API callers are identified by APILicenseMiddleware
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Next()
	}

	rc := usercontext.RequestContext{
		Fingerprint: fingerprint.FromRequest(c),
	}

	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, rc)
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		// Fall back to the fingerprint as anonymous identity
		fiberlog.Warnf("[Identity] session unavailable: %v", err)
		usercontext.Set(c, rc)
		return c.Next()
	}

	sid, _ := sess.Get(session.KeySessionID).(string)
	if sid == "" {
		sid = uuid.NewString()
		sess.Set(session.KeySessionID, sid)
		if err := sess.Save(); err != nil {
			fiberlog.Warnf("[Identity] failed to save new session: %v", err)
		}
	}
	rc.SessionID = sid
	rc.LicenseKey, _ = sess.Get(session.KeyLicenseKey).(string)

	usercontext.Set(c, rc)
	return c.Next()
}
