package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

// Decision is the authorizer verdict returned to the calling gateway.
// Transport status is always 200; the Active flag carries the real decision.
type Decision struct {
	Active          bool             `json:"active"`
	Principal       string           `json:"principal,omitempty"`
	Scope           []string         `json:"scope,omitempty"`
	ExpiresAt       string           `json:"expiresAt,omitempty"`
	Context         *DecisionContext `json:"context,omitempty"`
	WWWAuthenticate string           `json:"wwwAuthenticate,omitempty"`
}

// DecisionContext flattens the identity attributes into strings so the
// gateway can forward them as headers. Multi-valued fields are comma-joined.
type DecisionContext struct {
	Sub               string `json:"sub"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Groups            string `json:"groups"`
	SessionID         string `json:"session_id"`
	SessionIat        string `json:"session_iat"`
	RawClaims         string `json:"raw_claims"`
	UserinfoClaims    string `json:"userinfo_claims"`
}

// AuthorizeHandler renders the allow/deny decision for a session cookie. All
// failure classes collapse to the same inactive shape; only the coarse reason
// code differs, and only for the gateway's audit logging.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookieHeader := s.cookieHeaderFromRequest(r)

		sessionID := s.sessionIDFromCookies(cookieHeader)
		if sessionID == "" {
			log.Info().Msg("Authorize: no session cookie found")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonNoSession))
			return
		}

		envelope, err := s.sessions.Get(r.Context(), sessionID)
		if errors.Is(err, autherrors.ErrSessionNotFound) {
			log.Info().Str("session", sessionID[:min(8, len(sessionID))]).Msg("Authorize: session not found in cache")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonSessionNotFound))
			return
		}
		if err != nil {
			log.Err(err).Msg("Authorize: cache lookup failed")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonCacheError))
			return
		}

		pepper, err := secrets.GetPepper(r.Context(), s.secrets, s.config.GetPepperRef())
		if err != nil {
			log.Err(err).Msg("Authorize: failed to resolve pepper")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonSecretsError))
			return
		}

		record, err := sessions.Open(envelope, sessionID, pepper)
		if err != nil {
			log.Err(err).Msg("Authorize: failed to open session envelope")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonInvalidSession))
			return
		}

		if record.Expired(time.Now()) {
			log.Info().Msg("Authorize: session expired")
			writeJSON(w, http.StatusOK, denyDecision(autherrors.ReasonSessionExpired))
			return
		}

		log.Info().Str("sub", record.Sub).Msg("Session authorized")
		writeJSON(w, http.StatusOK, allowDecision(record, sessionID))
	}
}

// cookieHeaderFromRequest recovers the browser's Cookie header from the
// gateway's authorizer payload, which wraps the request attributes in an
// optional "data" object. The authorizer's own Cookie header is the fallback
// for direct invocation.
func (s *Server) cookieHeaderFromRequest(r *http.Request) string {
	body := decodeJSONBody(r)
	if data, ok := body["data"].(map[string]any); ok {
		body = data
	}
	for _, key := range []string{"Cookie", "cookie"} {
		if value, ok := body[key].(string); ok && value != "" {
			return value
		}
	}
	return r.Header.Get("Cookie")
}

func allowDecision(record sessions.Record, sessionID string) Decision {
	return Decision{
		Active:    true,
		Principal: record.Principal(),
		Scope:     []string{"openid", "profile", "email"},
		ExpiresAt: record.Exp.UTC().Format(time.RFC3339),
		Context: &DecisionContext{
			Sub:               record.Sub,
			Email:             record.Email,
			Name:              record.Name,
			PreferredUsername: record.PreferredUsername,
			GivenName:         record.GivenName,
			FamilyName:        record.FamilyName,
			Groups:            strings.Join(record.Groups, ","),
			SessionID:         sessionID,
			SessionIat:        record.Iat.UTC().Format(time.RFC3339),
			RawClaims:         strings.Join(record.RawClaims, ","),
			UserinfoClaims:    strings.Join(record.UserinfoClaims, ","),
		},
	}
}

func denyDecision(reason string) Decision {
	return Decision{
		Active:          false,
		WWWAuthenticate: fmt.Sprintf(`Bearer realm="app", error=%q`, reason),
	}
}
