// Package sessions holds the session record, the sealed-envelope codec, and
// the repositories that persist envelopes in the cache.
package sessions

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/timmelander/oidc-session-gateway/internal/utils"
)

// Record is the plaintext session. It only ever exists in memory; what is
// stored is the sealed envelope produced by Seal. Sessions are immutable once
// created: Exp is always Iat + the configured session TTL, with no renewal.
type Record struct {
	Sub               string    `json:"sub"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	PreferredUsername string    `json:"preferred_username"`
	GivenName         string    `json:"given_name"`
	FamilyName        string    `json:"family_name"`
	Groups            []string  `json:"groups"`
	UAHash            string    `json:"ua_hash"`
	Exp               time.Time `json:"exp"`
	Iat               time.Time `json:"iat"`
	// IDToken is retained solely so logout can present it as an
	// id_token_hint. It is never re-validated after session creation.
	IDToken        string   `json:"id_token"`
	RawClaims      []string `json:"raw_claims"`
	UserinfoClaims []string `json:"userinfo_claims,omitempty"`
}

// NewRecord builds a session record from validated ID-token claims. Custom
// claim names are preferred over the standard OIDC ones when present.
func NewRecord(claims map[string]any, idToken, userAgent string, now time.Time, ttl time.Duration) Record {
	now = now.UTC()

	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)

	return Record{
		Sub:               stringClaim(claims, "sub"),
		Email:             stringClaim(claims, "user_email", "email"),
		Name:              stringClaim(claims, "user_displayname", "name"),
		PreferredUsername: stringClaim(claims, "user_id", "preferred_username"),
		GivenName:         stringClaim(claims, "user_given_name", "given_name"),
		FamilyName:        stringClaim(claims, "user_family_name", "family_name"),
		Groups:            groupsClaim(claims, "user_groups", "groups"),
		UAHash:            HashUserAgent(userAgent),
		Exp:               now.Add(ttl),
		Iat:               now,
		IDToken:           idToken,
		RawClaims:         names,
	}
}

// Expired reports whether the record's validity window has passed.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.Exp)
}

// Principal returns the identifier presented to the gateway: email when
// present, otherwise the subject.
func (r Record) Principal() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Sub
}

// HashUserAgent computes the truncated hash stored for session binding.
// The comparison against it at authorization time is currently disabled
// because the User-Agent string differs structurally between the callback
// and authorizer invocation paths.
func HashUserAgent(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(userAgent))
	return hex.EncodeToString(sum[:])[:16]
}

func stringClaim(claims map[string]any, names ...string) string {
	for _, name := range names {
		if value, ok := claims[name].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func groupsClaim(claims map[string]any, names ...string) []string {
	for _, name := range names {
		raw, ok := claims[name]
		if !ok {
			continue
		}
		switch value := raw.(type) {
		case []string:
			if len(value) > 0 {
				return value
			}
		case []any:
			if groups := utils.ToStringSlice(value); len(groups) > 0 {
				return groups
			}
		}
	}
	return []string{}
}
