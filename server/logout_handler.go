package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

// LogoutHandler tears the session down. Everything here is best-effort
// except the cookie clear and the redirect: a user must always be able to
// get out of a broken session, so cache, secret, and IdP failures are logged
// and swallowed.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var idToken string

		if cookie, err := r.Cookie(s.config.GetSessionCookieName()); err == nil && cookie.Value != "" {
			idToken = s.teardownSession(r, cookie.Value)
		}

		redirectURL := s.config.GetPostLogoutRedirectURI()
		if doc, err := s.idp.Discover(r.Context()); err != nil {
			log.Warn().Err(err).Msg("Logout: failed to resolve end_session_endpoint")
		} else if doc.EndSessionEndpoint != "" {
			params := url.Values{}
			params.Set("post_logout_redirect_uri", s.config.GetPostLogoutRedirectURI())
			if idToken != "" {
				params.Set("id_token_hint", idToken)
			} else {
				log.Warn().Msg("Logout: no id_token available, IdP logout may fail")
			}
			redirectURL = doc.EndSessionEndpoint + "?" + params.Encode()
		}

		s.ClearSessionCookie(w)
		log.Info().Msg("Logout completed")
		redirect(w, r, redirectURL)
	}
}

// teardownSession recovers the id_token hint from the session, then deletes
// the session unconditionally. Returns "" when the session is gone or
// unreadable.
func (s *Server) teardownSession(r *http.Request, sessionID string) string {
	var idToken string

	envelope, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("Logout: failed to fetch session from cache")
	} else {
		pepper, err := secrets.GetPepper(r.Context(), s.secrets, s.config.GetPepperRef())
		if err != nil {
			log.Warn().Err(err).Msg("Logout: failed to resolve pepper")
		} else if record, err := sessions.Open(envelope, sessionID, pepper); err != nil {
			log.Warn().Err(err).Msg("Logout: failed to open session for id_token hint")
		} else {
			idToken = record.IDToken
		}
	}

	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		log.Warn().Err(err).Msg("Logout: failed to delete session from cache")
	} else {
		log.Info().Str("session", sessionID[:min(8, len(sessionID))]).Msg("Session deleted")
	}

	return idToken
}
