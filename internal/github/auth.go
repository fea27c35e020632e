// Copyright 2025 The Gitrelayd Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-github/v66/github"
	"golang.org/x/sync/singleflight"
)

// assertionTTL is the lifetime of a signed App assertion.
const assertionTTL = 10 * time.Minute

// RateLimitStatus is a point-in-time snapshot of the core API quota.
type RateLimitStatus struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Authenticator mints GitHub App assertions and exchanges them for
// installation access tokens, caching tokens until shortly before expiry.
// Concurrent cache misses for the same installation share one upstream
// exchange.
type Authenticator struct {
	appID          string
	installationID int64
	privateKey     *rsa.PrivateKey
	apiURL         string

	cache      *TokenCache
	refreshing singleflight.Group
	httpClient *http.Client
	now        func() time.Time
}

// NewAuthenticator parses the PEM-encoded App private key and prepares an
// authenticator for the given App and default installation. apiURL may be
// empty for the public GitHub API.
func NewAuthenticator(appID string, installationID int64, privateKeyPEM, apiURL string) (*Authenticator, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse App private key: %w", err)
	}

	return &Authenticator{
		appID:          appID,
		installationID: installationID,
		privateKey:     key,
		apiURL:         apiURL,
		cache:          NewTokenCache(),
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
	}, nil
}

// MintAssertion signs a fresh ten-minute App assertion with claims
// {iat: now, exp: now+600s, iss: app id}. Assertions are stateless and never
// cached; one is minted per token exchange.
func (a *Authenticator) MintAssertion() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		Issuer:    a.appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign App assertion: %w", err)
	}
	return signed, nil
}

// InstallationToken returns a bearer token scoped to the given installation,
// exchanging a fresh assertion for one when the cache has no usable entry.
// installationID zero selects the authenticator's default installation.
func (a *Authenticator) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	if installationID == 0 {
		installationID = a.installationID
	}
	cacheKey := fmt.Sprintf("installation_%d", installationID)

	if token, ok := a.cache.Get(cacheKey); ok {
		return token, nil
	}

	// Concurrent misses for the same installation collapse into a single
	// upstream exchange; the endpoint is rate-limited per App.
	value, err, _ := a.refreshing.Do(cacheKey, func() (any, error) {
		return a.exchangeToken(ctx, cacheKey, installationID)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (a *Authenticator) exchangeToken(ctx context.Context, cacheKey string, installationID int64) (string, error) {
	assertion, err := a.MintAssertion()
	if err != nil {
		return "", err
	}

	client, err := a.newClient()
	if err != nil {
		return "", err
	}

	token, _, err := client.WithAuthToken(assertion).Apps.CreateInstallationToken(ctx, installationID, nil)
	if err != nil {
		return "", fmt.Errorf("installation token exchange failed: %w", err)
	}

	a.cache.Set(cacheKey, token.GetToken(), token.GetExpiresAt().Time.Sub(a.now()))
	return token.GetToken(), nil
}

// RateLimit opens a short-lived installation-authenticated client and reads
// the caller's current core quota. Used by the upstream health probe, not by
// the dispatch path.
func (a *Authenticator) RateLimit(ctx context.Context, installationID int64) (*RateLimitStatus, error) {
	token, err := a.InstallationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}

	client, err := a.newClient()
	if err != nil {
		return nil, err
	}

	limits, _, err := client.WithAuthToken(token).RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate limit request failed: %w", err)
	}

	core := limits.GetCore()
	if core == nil {
		return &RateLimitStatus{}, nil
	}
	return &RateLimitStatus{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// Close clears the token cache and releases pooled transport connections.
// Called once at process shutdown.
func (a *Authenticator) Close() {
	a.cache.Clear()
	a.httpClient.CloseIdleConnections()
}

// newClient builds a go-github client over the shared pooled transport,
// pointed at the configured API base URL.
func (a *Authenticator) newClient() (*github.Client, error) {
	client := github.NewClient(a.httpClient)
	if a.apiURL == "" {
		return client, nil
	}

	base, err := url.Parse(strings.TrimSuffix(a.apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", a.apiURL, err)
	}
	client.BaseURL = base
	return client, nil
}
