package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type DatabaseTestSuite struct {
	suite.Suite
	client *Client
	ctx    context.Context
}

func (s *DatabaseTestSuite) SetupTest() {
	client, err := New(filepath.Join(s.T().TempDir(), "test.db"))
	require.NoError(s.T(), err)
	s.client = client
	s.ctx = context.Background()

	require.NoError(s.T(), s.client.SeedUsers(s.ctx, []UserSeed{
		{Username: "demo", Name: "Demo User", Email: "demo@example.com", PasswordHash: "hash-1"},
		{Username: "student_01", Name: "Alice Dev", Email: "alice@example.com", PasswordHash: "hash-2"},
	}))
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func (s *DatabaseTestSuite) TestSeedUsers_Idempotent() {
	err := s.client.SeedUsers(s.ctx, []UserSeed{
		{Username: "demo", Name: "Demo Renamed", Email: "demo@example.com", PasswordHash: "hash-3"},
	})
	s.Require().NoError(err)

	users, err := s.client.GetAllUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 2)

	demo, err := s.client.GetUserByUsername(s.ctx, "demo")
	s.Require().NoError(err)
	s.Equal("Demo Renamed", demo.Name)
	s.Equal("hash-3", demo.PasswordHash)
}

func (s *DatabaseTestSuite) TestGetUser() {
	demo, err := s.client.GetUserByUsername(s.ctx, "demo")
	s.Require().NoError(err)

	byID, err := s.client.GetUserByID(s.ctx, demo.ID)
	s.Require().NoError(err)
	s.Equal("demo", byID.Username)

	_, err = s.client.GetUserByUsername(s.ctx, "nobody")
	s.True(errors.Is(err, gorm.ErrRecordNotFound))

	_, err = s.client.GetUserByID(s.ctx, 9999)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *DatabaseTestSuite) TestAccessTokenLifecycle() {
	demo, err := s.client.GetUserByUsername(s.ctx, "demo")
	s.Require().NoError(err)

	token := &AccessToken{UserID: demo.ID, Name: "test", TokenHash: "abc"}
	s.Require().NoError(s.client.CreateAccessToken(s.ctx, token))
	s.NotZero(token.ID)

	stored, err := s.client.GetAccessToken(s.ctx, token.ID)
	s.Require().NoError(err)
	s.Equal(demo.ID, stored.UserID)
	s.Nil(stored.LastUsedAt)

	now := time.Now()
	s.Require().NoError(s.client.TouchAccessToken(s.ctx, token.ID, now))
	stored, err = s.client.GetAccessToken(s.ctx, token.ID)
	s.Require().NoError(err)
	s.NotNil(stored.LastUsedAt)

	tokens, err := s.client.GetAccessTokens(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tokens, 1)
	s.Equal("demo", tokens[0].User.Username)

	// wrong hash keeps the row
	deleted, err := s.client.DeleteAccessToken(s.ctx, token.ID, "wrong")
	s.Require().NoError(err)
	s.False(deleted)

	deleted, err = s.client.DeleteAccessToken(s.ctx, token.ID, "abc")
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.client.DeleteAccessToken(s.ctx, token.ID, "abc")
	s.Require().NoError(err)
	s.False(deleted)

	_, err = s.client.GetAccessToken(s.ctx, token.ID)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *DatabaseTestSuite) TestDeleteExpiredAccessTokens() {
	demo, err := s.client.GetUserByUsername(s.ctx, "demo")
	s.Require().NoError(err)

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	s.Require().NoError(s.client.CreateAccessToken(s.ctx, &AccessToken{UserID: demo.ID, Name: "expired", TokenHash: "h1", ExpiresAt: &past}))
	s.Require().NoError(s.client.CreateAccessToken(s.ctx, &AccessToken{UserID: demo.ID, Name: "live", TokenHash: "h2", ExpiresAt: &future}))
	s.Require().NoError(s.client.CreateAccessToken(s.ctx, &AccessToken{UserID: demo.ID, Name: "forever", TokenHash: "h3"}))

	deleted, err := s.client.DeleteExpiredAccessTokens(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	tokens, err := s.client.GetAccessTokens(s.ctx)
	s.Require().NoError(err)
	s.Len(tokens, 2)
}

func (s *DatabaseTestSuite) TestConcurrentTokenWrites() {
	demo, err := s.client.GetUserByUsername(s.ctx, "demo")
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.client.CreateAccessToken(s.ctx, &AccessToken{
				UserID:    demo.ID,
				Name:      "device",
				TokenHash: string(rune('a'+i)) + "-hash",
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	tokens, err := s.client.GetAccessTokens(s.ctx)
	s.Require().NoError(err)
	s.Len(tokens, 20)
}

func TestAccessTokenExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&AccessToken{}).Expired(now))
	assert.True(t, (&AccessToken{ExpiresAt: &past}).Expired(now))
	assert.True(t, (&AccessToken{ExpiresAt: &now}).Expired(now))
	assert.False(t, (&AccessToken{ExpiresAt: &future}).Expired(now))
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}
