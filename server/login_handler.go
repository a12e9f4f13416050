package server

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/timmelander/oidc-session-gateway/authstate"
	"github.com/timmelander/oidc-session-gateway/secrets"
)

// LoginHandler initiates the authorization-code flow with PKCE: it stores the
// verifier, nonce, and return destination under a fresh state token, then
// redirects the browser to the identity provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeJSONBody(r)
		returnTo := extractParam(r, body, "return_to")
		if returnTo == "" {
			returnTo = s.config.GetDefaultReturnTo()
		}

		codeVerifier := generateRandomString(32)
		codeChallenge := generateCodeChallenge(codeVerifier)
		state := generateRandomString(32)
		nonce := generateRandomString(32)

		err := s.states.Create(r.Context(), state, &authstate.State{
			CodeVerifier: codeVerifier,
			Nonce:        nonce,
			ReturnTo:     returnTo,
		}, s.config.GetStateTTL())
		if err != nil {
			log.Err(err).Msg("Login: failed to store exchange state")
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "")
			return
		}

		creds, err := secrets.GetClientCredentials(r.Context(), s.secrets, s.config.GetClientCredentialsRef())
		if err != nil {
			log.Err(err).Msg("Login: failed to resolve client credentials")
			writeJSONError(w, http.StatusInternalServerError, "internal_error", "")
			return
		}

		conf := &oauth2.Config{
			ClientID:    creds.ClientID,
			RedirectURL: s.config.GetRedirectURI(),
			Endpoint:    oauth2.Endpoint{AuthURL: s.idp.AuthorizationURL()},
			Scopes:      []string{oidc.ScopeOpenID, "profile", "email", "groups"},
		}
		authorizeURL := conf.AuthCodeURL(state,
			oauth2.SetAuthURLParam("nonce", nonce),
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)

		log.Info().Str("state", state[:min(8, len(state))]).Msg("Redirecting to IdP for authentication")
		redirect(w, r, authorizeURL)
	}
}
