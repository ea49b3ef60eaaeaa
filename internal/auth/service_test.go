package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/codevault/internal/database"
	"github.com/jon4hz/codevault/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServiceTestSuite struct {
	suite.Suite
	db      *mock.MockDB
	service *Service
	ctx     context.Context
}

func (s *ServiceTestSuite) SetupSuite() {
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) SetupTest() {
	s.db = mock.NewMockDB()

	hash, err := HashPassword("123456")
	s.Require().NoError(err)
	s.Require().NoError(s.db.SeedUsers(s.ctx, []database.UserSeed{
		{Username: "demo", Name: "Demo User", Email: "demo@example.com", PasswordHash: hash},
	}))

	s.service = NewService(s.db, NewIssuer(s.db, nil, 0))
}

func (s *ServiceTestSuite) TestLoginSuccess() {
	user, token, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal("demo", user.Username)
	s.Equal("Demo User", user.Name)
	s.Equal(uint(1), user.ID)
}

func (s *ServiceTestSuite) TestLoginFailures() {
	_, token, err := s.service.Login(s.ctx, "demo", "wrong", "")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Empty(token)

	_, token, err = s.service.Login(s.ctx, "nobody", "123456", "")
	s.ErrorIs(err, ErrInvalidCredentials)
	s.Empty(token)

	s.Equal(0, s.db.TokenCount())
}

func (s *ServiceTestSuite) TestLoginStoreError() {
	s.db.GetUserByUsernameError = errors.New("boom")
	_, _, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Error(err)
	s.NotErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceTestSuite) TestEachLoginIssuesNewToken() {
	_, first, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)
	_, second, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)
	s.NotEqual(first, second)
	s.Equal(2, s.db.TokenCount())
}

func (s *ServiceTestSuite) TestWhoami() {
	_, token, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)

	user, ok, err := s.service.Whoami(s.ctx, token)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("demo", user.Username)

	user, ok, err = s.service.Whoami(s.ctx, "")
	s.NoError(err)
	s.False(ok)
	s.Nil(user)
}

func (s *ServiceTestSuite) TestLogout() {
	_, token, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)
	_, other, err := s.service.Login(s.ctx, "demo", "123456", "")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, token))

	_, ok, err := s.service.Whoami(s.ctx, token)
	s.NoError(err)
	s.False(ok)

	_, ok, err = s.service.Whoami(s.ctx, other)
	s.NoError(err)
	s.True(ok)

	s.ErrorIs(s.service.Logout(s.ctx, token), ErrUnauthenticated)
	s.ErrorIs(s.service.Logout(s.ctx, ""), ErrUnauthenticated)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("learn2code")
	require.NoError(t, err)
	assert.NotEqual(t, "learn2code", hash)
	assert.True(t, CheckPassword(hash, "learn2code"))
	assert.False(t, CheckPassword(hash, "learn2Code"))
	assert.False(t, CheckPassword("not-a-hash", "learn2code"))
}
