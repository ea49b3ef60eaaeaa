package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/jon4hz/codevault/internal/config"
)

// TokenCachePrefix is the key prefix of cached token bindings.
const TokenCachePrefix = "codevault-token-"

// TokenEntry is the cached form of a stored access token.
type TokenEntry struct {
	UserID    uint       `json:"userId"`
	TokenHash string     `json:"tokenHash"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// TokenCache caches token bindings by token ID.
type TokenCache struct {
	tokens *PrefixedCache[TokenEntry]
	ttl    time.Duration
}

// NewTokenCache creates the token cache for the configured backend.
func NewTokenCache(cfg *config.CacheConfig) *TokenCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenCache{
		tokens: NewPrefixedCache[TokenEntry](
			newCacheInstanceByType(cfg),
			cfg.Type,
			TokenCachePrefix,
		),
		ttl: ttl,
	}
}

// Get returns the cached entry for a token ID. Any cache error is a miss.
func (t *TokenCache) Get(ctx context.Context, id uint) (TokenEntry, bool) {
	entry, err := t.tokens.Get(ctx, id)
	if err != nil {
		log.Debug("Cache miss for token", "id", id)
		return TokenEntry{}, false
	}
	return entry, true
}

// Set caches a token entry. The entry never outlives the token itself.
func (t *TokenCache) Set(ctx context.Context, id uint, entry TokenEntry) {
	ttl := t.ttl
	if entry.ExpiresAt != nil {
		if remaining := time.Until(*entry.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	if err := t.tokens.Set(ctx, id, entry, store.WithExpiration(ttl)); err != nil {
		log.Warn("failed to cache token", "id", id, "error", err)
	}
}

// Delete evicts a token entry.
func (t *TokenCache) Delete(ctx context.Context, id uint) error {
	return t.tokens.Delete(ctx, id)
}

// Clear evicts all token entries.
func (t *TokenCache) Clear(ctx context.Context) {
	if err := t.tokens.Clear(ctx); err != nil {
		log.Errorf("failed to clear cache: %v", err)
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
	CacheType string `json:"cacheType"`
}

// GetStats returns the hit and miss counters of the token cache.
func (t *TokenCache) GetStats() *Stats {
	return &Stats{
		Stats:     t.tokens.GetStats(),
		CacheName: "tokens",
		CacheType: string(t.tokens.GetType()),
	}
}
