// Package authstate holds the short-lived correlation records tying a login
// attempt to its callback. A record is created when the browser is redirected
// to the identity provider and consumed exactly once when the callback
// arrives; abandoned records expire on their own.
package authstate

import (
	"context"
	"time"
)

// State is what the callback needs to finish the flow: the PKCE verifier
// (never sent to the browser), the nonce expected back in the ID token, and
// the post-login destination.
type State struct {
	CodeVerifier string `json:"code_verifier"`
	Nonce        string `json:"nonce"`
	ReturnTo     string `json:"return_to"`
}

// Repo stores exchange-state records keyed by the state token.
//
// Consume must atomically retrieve and delete in one operation; a second
// Consume with the same token observes ErrStateNotFound. That atomicity is
// the sole replay defense and must not be approximated by a separate
// read-then-delete.
type Repo interface {
	Create(ctx context.Context, stateToken string, state *State, ttl time.Duration) error
	Consume(ctx context.Context, stateToken string) (*State, error)
}
