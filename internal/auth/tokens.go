package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/database"
	"gorm.io/gorm"
)

const (
	tokenSecretBytes = 40
	// DefaultTokenName is the name given to tokens issued by a plain login.
	DefaultTokenName = "auth_token"
)

// Issuer issues, validates and revokes opaque bearer tokens.
//
// A token has the form "<id>|<secret>". The id addresses the stored binding,
// the secret is only kept as a SHA-256 hash.
type Issuer struct {
	db    database.TokenDB
	cache *cache.TokenCache
	ttl   time.Duration
	now   func() time.Time

	// serializes cache fills against revocation
	mu sync.RWMutex
}

// NewIssuer creates a token issuer. tokenCache may be nil, ttl zero disables expiry.
func NewIssuer(db database.TokenDB, tokenCache *cache.TokenCache, ttl time.Duration) *Issuer {
	return &Issuer{
		db:    db,
		cache: tokenCache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the configured token lifetime. Zero means no expiry.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a new token bound to userID.
func (i *Issuer) Issue(ctx context.Context, userID uint, name string) (string, error) {
	secret, err := newSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if name == "" {
		name = DefaultTokenName
	}

	row := &database.AccessToken{
		UserID:    userID,
		Name:      name,
		TokenHash: hashSecret(secret),
	}
	if i.ttl > 0 {
		expires := i.now().Add(i.ttl)
		row.ExpiresAt = &expires
	}

	if err := i.db.CreateAccessToken(ctx, row); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return formatToken(row.ID, secret), nil
}

// Validate returns the owner of a live token.
// Unknown, malformed, revoked and expired tokens are reported as ok=false without error.
func (i *Issuer) Validate(ctx context.Context, token string) (uint, bool, error) {
	id, secret, ok := ParseToken(token)
	if !ok {
		return 0, false, nil
	}
	hash := hashSecret(secret)

	if i.cache != nil {
		if entry, hit := i.cache.Get(ctx, id); hit {
			return i.check(entry, hash)
		}
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	row, err := i.db.GetAccessToken(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to look up token: %w", err)
	}

	entry := cache.TokenEntry{
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
	}
	userID, valid, _ := i.check(entry, hash)
	if !valid {
		return 0, false, nil
	}

	if i.cache != nil {
		i.cache.Set(ctx, id, entry)
	}
	if err := i.db.TouchAccessToken(ctx, id, i.now()); err != nil {
		log.Warn("failed to record token usage", "id", id, "error", err)
	}

	return userID, true, nil
}

func (i *Issuer) check(entry cache.TokenEntry, hash string) (uint, bool, error) {
	if subtle.ConstantTimeCompare([]byte(entry.TokenHash), []byte(hash)) != 1 {
		return 0, false, nil
	}
	if entry.ExpiresAt != nil && !entry.ExpiresAt.After(i.now()) {
		return 0, false, nil
	}
	return entry.UserID, true, nil
}

// Revoke deletes the binding of token. Revoking an unknown or already revoked token is a no-op.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	id, secret, ok := ParseToken(token)
	if !ok {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	deleted, err := i.db.DeleteAccessToken(ctx, id, hashSecret(secret))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if deleted {
		i.evict(ctx, id)
	}
	return nil
}

// RevokeByID deletes a binding by its ID without knowing the secret.
func (i *Issuer) RevokeByID(ctx context.Context, id uint) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	deleted, err := i.db.DeleteAccessTokenByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	if deleted {
		i.evict(ctx, id)
	}
	return deleted, nil
}

// PruneExpired deletes all expired bindings.
func (i *Issuer) PruneExpired(ctx context.Context) (int64, error) {
	deleted, err := i.db.DeleteExpiredAccessTokens(ctx, i.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tokens: %w", err)
	}
	return deleted, nil
}

// List returns all stored bindings.
func (i *Issuer) List(ctx context.Context) ([]database.AccessToken, error) {
	return i.db.GetAccessTokens(ctx)
}

func (i *Issuer) evict(ctx context.Context, id uint) {
	if i.cache == nil {
		return
	}
	if err := i.cache.Delete(ctx, id); err != nil {
		log.Debug("failed to evict token from cache", "id", id, "error", err)
	}
}

// ParseToken splits a bearer token into its ID and secret.
func ParseToken(token string) (uint, string, bool) {
	idPart, secret, found := strings.Cut(strings.TrimSpace(token), "|")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idPart, 10, 0)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), secret, true
}

func formatToken(id uint, secret string) string {
	return strconv.FormatUint(uint64(id), 10) + "|" + secret
}

func newSecret() (string, error) {
	b := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
