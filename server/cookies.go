package server

import (
	"net/http"
	"time"
)

// SetSessionCookie emits the session cookie with both Max-Age and Expires so
// clients on either behavior expire it with the session.
func (s *Server) SetSessionCookie(w http.ResponseWriter, sessionID string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    sessionID,
		Path:     "/",
		Domain:   s.config.GetCookieDomain(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
	})
}

// ClearSessionCookie expires the session cookie immediately. Logout relies on
// this being unconditional, whatever else fails.
func (s *Server) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		Domain:   s.config.GetCookieDomain(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1, // serialized as Max-Age=0
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// sessionIDFromCookies extracts the session id from a raw Cookie header.
func (s *Server) sessionIDFromCookies(cookieHeader string) string {
	request := http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}
	cookie, err := request.Cookie(s.config.GetSessionCookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}
