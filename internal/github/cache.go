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
	"sync"
	"time"
)

// expiryMargin is subtracted from every stored TTL so that a token is never
// handed out within 60 seconds of its upstream expiry.
const expiryMargin = 60 * time.Second

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenCache is a concurrency-safe, expiry-aware token store. Entries past
// their expiry are treated as absent and evicted on read.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

// NewTokenCache creates an empty token cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[string]cachedToken),
		now:    time.Now,
	}
}

// Get returns the cached token for key, or false when the key is absent or
// the entry has expired. The expiry check and the return are indivisible
// with respect to concurrent callers.
func (c *TokenCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.tokens[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.tokens, key)
		return "", false
	}
	return entry.value, true
}

// Set stores token under key, expiring ttl minus the refresh margin from
// now. A ttl at or below the margin yields an entry that is already expired,
// which forces every subsequent read to refresh. That is intentional: a
// caller must never receive a token that could lapse mid-call.
func (c *TokenCache) Set(key, token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens[key] = cachedToken{
		value:     token,
		expiresAt: c.now().Add(ttl - expiryMargin),
	}
}

// Clear removes all cached tokens.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = make(map[string]cachedToken)
}
