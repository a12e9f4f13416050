package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Login flow
	RouteLogin    = "/auth/login"
	RouteCallback = "/auth/callback"
	RouteLogout   = "/auth/logout"

	// Gateway decision endpoint
	RouteAuthorize = "/authorize"

	// Load balancer probes
	RouteHealth = "/health"
)
