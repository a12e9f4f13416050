package server

import (
	"net/http"

	"github.com/timmelander/oidc-session-gateway/authstate"
	"github.com/timmelander/oidc-session-gateway/idp"
	"github.com/timmelander/oidc-session-gateway/internal/config"
	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	secrets  secrets.Provider
	states   authstate.Repo
	sessions sessions.Repo
	idp      *idp.Client
}

func New(cfg config.Config, secretProvider secrets.Provider, stateRepo authstate.Repo, sessionRepo sessions.Repo, idpClient *idp.Client) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		secrets:  secretProvider,
		states:   stateRepo,
		sessions: sessionRepo,
		idp:      idpClient,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}
