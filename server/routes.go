package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+RouteLogin, s.LoginHandler())

	s.RegisterRouteFunc("GET "+RouteCallback, s.CallbackHandler())
	s.RegisterRouteFunc("POST "+RouteCallback, s.CallbackHandler()) // For form_post response mode

	s.RegisterRouteFunc("GET "+RouteLogout, s.LogoutHandler())

	// The gateway posts the request headers it wants a decision for
	s.RegisterRouteHandler("POST "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
