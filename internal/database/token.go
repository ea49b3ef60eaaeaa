package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// AccessToken binds a bearer token to a user.
// Only the SHA-256 of the token secret is stored.
type AccessToken struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"index;not null"`
	User       User   `gorm:"constraint:OnDelete:CASCADE;"`
	Name       string `gorm:"not null"`
	TokenHash  string `gorm:"uniqueIndex;size:64;not null"`
	LastUsedAt *time.Time
	ExpiresAt  *time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// Expired reports whether the token has an expiry that is not after now.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

func (c *Client) CreateAccessToken(ctx context.Context, token *AccessToken) error {
	if err := c.db.WithContext(ctx).Omit("User").Create(token).Error; err != nil {
		log.Error("failed to create access token", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetAccessToken(ctx context.Context, id uint) (*AccessToken, error) {
	var token AccessToken
	if err := c.db.WithContext(ctx).First(&token, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get access token", "error", err)
		}
		return nil, err
	}
	return &token, nil
}

// GetAccessTokens returns all stored tokens with their owners, newest first.
func (c *Client) GetAccessTokens(ctx context.Context) ([]AccessToken, error) {
	var tokens []AccessToken
	if err := c.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&tokens).Error; err != nil {
		log.Error("failed to get access tokens", "error", err)
		return nil, err
	}
	return tokens, nil
}

func (c *Client) TouchAccessToken(ctx context.Context, id uint, usedAt time.Time) error {
	result := c.db.WithContext(ctx).Model(&AccessToken{}).Where("id = ?", id).Update("last_used_at", usedAt)
	if result.Error != nil {
		log.Error("failed to update access token usage", "error", result.Error)
		return result.Error
	}
	return nil
}

// DeleteAccessToken deletes the token with the given ID if its hash matches.
// It reports whether a row was removed.
func (c *Client) DeleteAccessToken(ctx context.Context, id uint, tokenHash string) (bool, error) {
	result := c.db.WithContext(ctx).Where("id = ? AND token_hash = ?", id, tokenHash).Delete(&AccessToken{})
	if result.Error != nil {
		log.Error("failed to delete access token", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteAccessTokenByID deletes a token without checking its secret. Used by operators.
func (c *Client) DeleteAccessTokenByID(ctx context.Context, id uint) (bool, error) {
	result := c.db.WithContext(ctx).Delete(&AccessToken{}, id)
	if result.Error != nil {
		log.Error("failed to delete access token", "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	result := c.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&AccessToken{})
	if result.Error != nil {
		log.Error("failed to delete expired access tokens", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
