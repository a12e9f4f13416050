package server_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/timmelander/oidc-session-gateway/authstate"
	"github.com/timmelander/oidc-session-gateway/idp"
	"github.com/timmelander/oidc-session-gateway/internal/config"
	"github.com/timmelander/oidc-session-gateway/secrets"
	"github.com/timmelander/oidc-session-gateway/server"
	"github.com/timmelander/oidc-session-gateway/sessions"
)

const (
	testClientID     = "client-abc"
	testClientSecret = "s3cret"
)

var testPepper = []byte("0123456789abcdef0123456789abcdef")

// fakeIdP is an httptest identity provider serving the discovery document
// and the token endpoint. The ID token it issues is unsigned-trust style:
// claims are whatever the fake is configured with, echoing back the nonce
// set by the test.
type fakeIdP struct {
	server *httptest.Server

	mu           sync.Mutex
	nonce        string
	extraClaims  map[string]any
	lastVerifier string
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	f := &fakeIdP{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":               f.server.URL,
			"token_endpoint":       f.server.URL + "/oauth2/v1/token",
			"end_session_endpoint": f.server.URL + "/oauth2/v1/userlogout",
		})
	})
	mux.HandleFunc("POST /oauth2/v1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.lastVerifier = r.FormValue("code_verifier")
		claims := jwtlib.MapClaims{
			"iss":   f.server.URL,
			"aud":   testClientID,
			"sub":   "user-123",
			"email": "jane@example.com",
			"nonce": f.nonce,
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
		for name, value := range f.extraClaims {
			claims[name] = value
		}
		f.mu.Unlock()

		idToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("idp-key"))
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-token",
			"token_type":   "Bearer",
			"id_token":     idToken,
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIdP) setNonce(nonce string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce = nonce
}

func (f *fakeIdP) setExtraClaims(claims map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extraClaims = claims
}

// harness wires a Server onto in-memory repositories and a fake IdP.
type harness struct {
	server   *server.Server
	states   *authstate.InMemoryRepo
	sessions *sessions.InMemoryRepo
	idp      *fakeIdP
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := newFakeIdP(t)
	return newHarnessWithIdPURL(t, f.server.URL, f)
}

// newBrokenIdPHarness wires the server to an IdP endpoint that refuses
// connections.
func newBrokenIdPHarness(t *testing.T) *harness {
	t.Helper()
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()
	return newHarnessWithIdPURL(t, dead.URL, nil)
}

func newHarnessWithIdPURL(t *testing.T, idpURL string, f *fakeIdP) *harness {
	t.Helper()

	t.Setenv("IDP_BASE_URL", idpURL)
	t.Setenv("OIDC_REDIRECT_URI", "https://app.example.com/auth/callback")
	t.Setenv("OIDC_CLIENT_CREDENTIALS", fmt.Sprintf(`{"client_id":%q,"client_secret":%q}`, testClientID, testClientSecret))
	t.Setenv("SESSION_PEPPER", base64.StdEncoding.EncodeToString(testPepper))

	stateRepo := authstate.NewInMemoryRepo()
	sessionRepo := sessions.NewInMemoryRepo()

	return &harness{
		server: server.New(
			config.New(),
			secrets.NewCachingProvider(secrets.EnvProvider{}),
			stateRepo,
			sessionRepo,
			idp.New(idpURL),
		),
		states:   stateRepo,
		sessions: sessionRepo,
		idp:      f,
	}
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)
	return rec
}

// login runs the login handler and returns the authorization redirect query.
func (h *harness) login(t *testing.T, target string) url.Values {
	t.Helper()
	rec := h.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return location.Query()
}

// completeLogin runs login then callback and returns the session cookie.
func (h *harness) completeLogin(t *testing.T) *http.Cookie {
	t.Helper()
	query := h.login(t, "/auth/login")
	h.idp.setNonce(query.Get("nonce"))

	callback := "/auth/callback?code=auth-code&state=" + url.QueryEscape(query.Get("state"))
	rec := h.do(t, httptest.NewRequest(http.MethodGet, callback, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_id" {
			return cookie
		}
	}
	return nil
}

func stateFromAuthorizeURL(t *testing.T, rawURL string) string {
	t.Helper()
	location, err := url.Parse(rawURL)
	require.NoError(t, err)
	return location.Query().Get("state")
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	body := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
