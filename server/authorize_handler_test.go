package server_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timmelander/oidc-session-gateway/server"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

func authorizeRequest(cookieHeader string) *http.Request {
	payload := fmt.Sprintf(`{"data":{"Cookie":%q}}`, cookieHeader)
	req := httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeDecision(t *testing.T, rec *httptest.ResponseRecorder) server.Decision {
	t.Helper()
	var decision server.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	return decision
}

func TestAuthorizeActiveSession(t *testing.T) {
	h := newHarness(t)
	h.idp.setExtraClaims(map[string]any{
		"name":   "Jane Doe",
		"groups": []string{"admins", "users"},
	})
	cookie := h.completeLogin(t)

	rec := h.do(t, authorizeRequest("session_id="+cookie.Value))
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeDecision(t, rec)
	require.True(t, decision.Active)
	require.Equal(t, "jane@example.com", decision.Principal)
	require.Equal(t, []string{"openid", "profile", "email"}, decision.Scope)
	require.Empty(t, decision.WWWAuthenticate)

	require.NotNil(t, decision.Context)
	require.Equal(t, "user-123", decision.Context.Sub)
	require.Equal(t, "Jane Doe", decision.Context.Name)
	require.Equal(t, "admins,users", decision.Context.Groups)
	require.Equal(t, cookie.Value, decision.Context.SessionID)

	expiresAt, err := time.Parse(time.RFC3339, decision.ExpiresAt)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))
}

func TestAuthorizeDeniedAlwaysHTTP200(t *testing.T) {
	h := newHarness(t)

	t.Run("no cookie", func(t *testing.T) {
		rec := h.do(t, httptest.NewRequest(http.MethodPost, "/authorize", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		decision := decodeDecision(t, rec)
		require.False(t, decision.Active)
		require.Equal(t, `Bearer realm="app", error="no_session"`, decision.WWWAuthenticate)
		require.Nil(t, decision.Context)
	})

	t.Run("unknown session id", func(t *testing.T) {
		rec := h.do(t, authorizeRequest("session_id=never-created"))
		require.Equal(t, http.StatusOK, rec.Code)

		decision := decodeDecision(t, rec)
		require.False(t, decision.Active)
		require.Equal(t, `Bearer realm="app", error="session_not_found"`, decision.WWWAuthenticate)
	})
}

func TestAuthorizeCookieHeaderFallback(t *testing.T) {
	h := newHarness(t)
	cookie := h.completeLogin(t)

	req := httptest.NewRequest(http.MethodPost, "/authorize", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: cookie.Value})
	rec := h.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeDecision(t, rec).Active)
}

func TestAuthorizeExpiredSession(t *testing.T) {
	h := newHarness(t)

	record := sessions.NewRecord(map[string]any{"sub": "user-123"}, "id-token", "", time.Now().Add(-2*time.Hour), time.Hour)
	envelope, err := sessions.Seal(record, "expired-session", testPepper)
	require.NoError(t, err)
	require.NoError(t, h.sessions.Put(t.Context(), "expired-session", envelope, time.Hour))

	rec := h.do(t, authorizeRequest("session_id=expired-session"))
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeDecision(t, rec)
	require.False(t, decision.Active)
	require.Equal(t, `Bearer realm="app", error="session_expired"`, decision.WWWAuthenticate)
}

func TestAuthorizeTamperedEnvelope(t *testing.T) {
	h := newHarness(t)
	cookie := h.completeLogin(t)

	envelope, err := h.sessions.Get(t.Context(), cookie.Value)
	require.NoError(t, err)

	tampered := append([]byte(nil), envelope...)
	tampered[len(tampered)-1] ^= 0x01
	require.NoError(t, h.sessions.Put(t.Context(), cookie.Value, tampered, time.Hour))

	rec := h.do(t, authorizeRequest("session_id="+cookie.Value))
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeDecision(t, rec)
	require.False(t, decision.Active)
	require.Equal(t, `Bearer realm="app", error="invalid_session"`, decision.WWWAuthenticate)
}

func TestAuthorizeEnvelopeBoundToSessionID(t *testing.T) {
	h := newHarness(t)
	cookie := h.completeLogin(t)

	envelope, err := h.sessions.Get(t.Context(), cookie.Value)
	require.NoError(t, err)
	require.NoError(t, h.sessions.Put(t.Context(), "other-session", envelope, time.Hour))

	rec := h.do(t, authorizeRequest("session_id=other-session"))
	require.Equal(t, http.StatusOK, rec.Code)

	decision := decodeDecision(t, rec)
	require.False(t, decision.Active)
	require.Equal(t, `Bearer realm="app", error="invalid_session"`, decision.WWWAuthenticate)
}
