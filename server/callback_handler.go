package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/timmelander/oidc-session-gateway/idp"
	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

// CallbackHandler finishes the login flow after the user authenticated at the
// IdP:
//
//  1. extract code/state/error from whichever source carries them
//  2. consume the exchange-state record (atomic, replay-safe)
//  3. exchange the authorization code for tokens
//  4. validate the ID token's issuer, audience, and nonce
//  5. seal a session record, store it, set the cookie, redirect
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeJSONBody(r)

		code := extractParam(r, body, "code")
		state := extractParam(r, body, "state")
		errorParam := extractParam(r, body, "error")
		errorDesc := extractParam(r, body, "error_description")

		if errorParam != "" {
			log.Error().Str("error", errorParam).Str("description", errorDesc).Msg("Callback: IdP returned an error")
			writeJSONError(w, http.StatusUnauthorized, errorParam, errorDesc)
			return
		}

		if code == "" || state == "" {
			log.Error().Msg("Callback: missing code or state parameter")
			writeJSONError(w, http.StatusBadRequest, autherrors.ReasonMissingParameters, "")
			return
		}

		exchangeState, err := s.states.Consume(r.Context(), state)
		if errors.Is(err, autherrors.ErrStateNotFound) {
			log.Error().Str("state", state[:min(8, len(state))]).Msg("Callback: state not found or already used")
			writeJSONError(w, http.StatusBadRequest, autherrors.ReasonInvalidState, "")
			return
		}
		if err != nil {
			log.Err(err).Msg("Callback: failed to consume exchange state")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonInternalError, "")
			return
		}

		creds, err := secrets.GetClientCredentials(r.Context(), s.secrets, s.config.GetClientCredentialsRef())
		if err != nil {
			log.Err(err).Msg("Callback: failed to resolve client credentials")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonInternalError, "")
			return
		}

		doc, err := s.idp.Discover(r.Context())
		if err != nil {
			log.Err(err).Msg("Callback: discovery failed")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonInternalError, "")
			return
		}

		tokens, err := s.idp.Exchange(r.Context(), doc, creds, s.config.GetRedirectURI(), code, exchangeState.CodeVerifier)
		if errors.Is(err, autherrors.ErrNoIDToken) {
			log.Error().Msg("Callback: no id_token in token response")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonNoIDToken, "")
			return
		}
		if err != nil {
			log.Err(err).Msg("Callback: token exchange failed")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonInternalError, "")
			return
		}

		claims, err := idp.ValidateIDToken(tokens.IDToken, doc.Issuer, creds.ClientID, exchangeState.Nonce)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, autherrors.ReasonInvalidIDToken, "")
			return
		}

		if err := s.createSession(w, r, claims, tokens.IDToken); err != nil {
			log.Err(err).Msg("Callback: failed to create session")
			writeJSONError(w, http.StatusInternalServerError, autherrors.ReasonInternalError, "")
			return
		}

		redirect(w, r, exchangeState.ReturnTo)
	}
}

// createSession seals a fresh session record, stores the envelope, and sets
// the session cookie. The TTL of the cache entry matches the record's Exp.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request, claims map[string]any, idToken string) error {
	sessionID := generateRandomString(32)
	sessionTTL := s.config.GetSessionTTL()

	record := sessions.NewRecord(claims, idToken, r.UserAgent(), time.Now(), sessionTTL)

	pepper, err := secrets.GetPepper(r.Context(), s.secrets, s.config.GetPepperRef())
	if err != nil {
		return autherrors.Wrapf(err, "[Server createSession] failed to resolve pepper")
	}

	envelope, err := sessions.Seal(record, sessionID, pepper)
	if err != nil {
		return autherrors.Wrapf(err, "[Server createSession] failed to seal session")
	}

	if err := s.sessions.Put(r.Context(), sessionID, envelope, sessionTTL); err != nil {
		return autherrors.Wrapf(err, "[Server createSession] failed to store session")
	}

	s.SetSessionCookie(w, sessionID, sessionTTL)
	log.Info().Str("sub", record.Sub).Msg("Session created")
	return nil
}
