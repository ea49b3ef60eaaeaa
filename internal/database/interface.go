package database

import (
	"context"
	"time"
)

// DB is the storage used by the auth layer and the operator commands.
type DB interface {
	UserDB
	TokenDB
	Close() error
}

// UserDB is the credential store. Users are written at seed time only.
type UserDB interface {
	SeedUsers(ctx context.Context, seeds []UserSeed) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
}

// TokenDB stores the token to user bindings.
type TokenDB interface {
	CreateAccessToken(ctx context.Context, token *AccessToken) error
	GetAccessToken(ctx context.Context, id uint) (*AccessToken, error)
	GetAccessTokens(ctx context.Context) ([]AccessToken, error)
	TouchAccessToken(ctx context.Context, id uint, usedAt time.Time) error
	DeleteAccessToken(ctx context.Context, id uint, tokenHash string) (bool, error)
	DeleteAccessTokenByID(ctx context.Context, id uint) (bool, error)
	DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error)
}
