package database

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// User represents a student account.
// Accounts are created by the seeder and never changed by the server.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	Email        string
	PasswordHash string        `gorm:"not null"`
	AccessTokens []AccessToken `gorm:"constraint:OnDelete:CASCADE;"`
}

// UserSeed describes an account created by SeedUsers.
// PasswordHash must already be hashed.
type UserSeed struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
}

// SeedUsers creates or updates the given accounts, keyed by username.
func (c *Client) SeedUsers(ctx context.Context, seeds []UserSeed) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range seeds {
			var user User
			err := tx.Where("username = ?", seed.Username).First(&user).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				user = User{
					Username:     seed.Username,
					Name:         seed.Name,
					Email:        seed.Email,
					PasswordHash: seed.PasswordHash,
				}
				if err := tx.Create(&user).Error; err != nil {
					log.Error("failed to create user", "username", seed.Username, "error", err)
					return err
				}
			case err != nil:
				log.Error("failed to look up user", "username", seed.Username, "error", err)
				return err
			default:
				if err := tx.Model(&user).Updates(map[string]any{
					"name":          seed.Name,
					"email":         seed.Email,
					"password_hash": seed.PasswordHash,
				}).Error; err != nil {
					log.Error("failed to update user", "username", seed.Username, "error", err)
					return err
				}
			}
		}
		return nil
	})
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by username", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		log.Error("failed to get all users", "error", err)
		return nil, err
	}
	return users, nil
}
