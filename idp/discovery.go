// Package idp talks to the identity provider: discovery-document resolution,
// authorization-code exchange, and ID-token claim validation.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
)

const (
	discoveryPath = "/.well-known/openid-configuration"

	// discoveryCacheTTL bounds staleness of the cached document. Providers
	// rotate keys and endpoints on the order of hours, so a few minutes of
	// staleness is safe.
	discoveryCacheTTL = 5 * time.Minute

	// maxDiscoverySize limits the discovery response body.
	maxDiscoverySize = 1024 * 1024
)

// DiscoveryDocument is the subset of the provider's OpenID configuration the
// gateway uses.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint"`
}

// Client resolves and caches the provider's discovery document. The cache is
// a latency optimization only; expiry forces a refetch so staleness is
// bounded by discoveryCacheTTL.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	doc       *DiscoveryDocument
	fetchedAt time.Time
}

// New creates an identity-provider client for the given base URL, e.g.
// "https://idcs-xxxx.identity.oraclecloud.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Discover returns the provider's discovery document, refetching it when the
// cached copy has aged out.
func (c *Client) Discover(ctx context.Context) (*DiscoveryDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc != nil && time.Since(c.fetchedAt) < discoveryCacheTTL {
		return c.doc, nil
	}

	doc, err := c.fetchDiscovery(ctx)
	if err != nil {
		return nil, err
	}
	c.doc = doc
	c.fetchedAt = time.Now()
	return doc, nil
}

func (c *Client) fetchDiscovery(ctx context.Context) (*DiscoveryDocument, error) {
	url := c.baseURL + discoveryPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("[Client Discover] failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrUpstream, "[Client Discover] GET %s failed (%v)", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, autherrors.Wrapf(autherrors.ErrUpstream, "[Client Discover] %s returned HTTP %d", url, resp.StatusCode)
	}

	var doc DiscoveryDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoverySize)).Decode(&doc); err != nil {
		return nil, autherrors.Wrapf(autherrors.ErrUpstream, "[Client Discover] %s returned invalid JSON (%v)", url, err)
	}
	if doc.Issuer == "" || doc.TokenEndpoint == "" {
		return nil, autherrors.Wrapf(autherrors.ErrUpstream, "[Client Discover] %s returned incomplete metadata", url)
	}
	return &doc, nil
}

// AuthorizationURL returns the provider's authorization endpoint. The login
// path does not depend on discovery; the endpoint location is fixed relative
// to the provider base URL.
func (c *Client) AuthorizationURL() string {
	return c.baseURL + "/oauth2/v1/authorize"
}
