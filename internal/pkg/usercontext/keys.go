package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyRequestContext = "REQUEST_CONTEXT"
	KeyCSRF           = "csrf"
	KeyFromAPI        = "from_api"
)
