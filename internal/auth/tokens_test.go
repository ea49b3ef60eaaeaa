package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/config"
	"github.com/jon4hz/codevault/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type IssuerTestSuite struct {
	suite.Suite
	db     *mock.MockDB
	cache  *cache.TokenCache
	issuer *Issuer
	ctx    context.Context
}

func (s *IssuerTestSuite) SetupTest() {
	s.db = mock.NewMockDB()
	s.cache = cache.NewTokenCache(&config.CacheConfig{Type: config.CacheTypeMemory, TTL: time.Minute})
	s.issuer = NewIssuer(s.db, s.cache, 0)
	s.ctx = context.Background()
}

func (s *IssuerTestSuite) TestIssueFormat() {
	token, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)

	id, secret, ok := ParseToken(token)
	s.Require().True(ok)
	s.Equal(uint(1), id)
	s.Len(secret, tokenSecretBytes*2)

	row, err := s.db.GetAccessToken(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(DefaultTokenName, row.Name)
	s.Equal(hashSecret(secret), row.TokenHash)
	s.NotContains(row.TokenHash, secret)
	s.Nil(row.ExpiresAt)
}

func (s *IssuerTestSuite) TestIssueUnique() {
	seen := make(map[string]struct{})
	for range 50 {
		token, err := s.issuer.Issue(s.ctx, 1, "cli")
		s.Require().NoError(err)
		_, secret, _ := ParseToken(token)
		_, dup := seen[secret]
		s.False(dup)
		seen[secret] = struct{}{}
	}
}

func (s *IssuerTestSuite) TestValidate() {
	token, err := s.issuer.Issue(s.ctx, 42, "")
	s.Require().NoError(err)

	userID, ok, err := s.issuer.Validate(s.ctx, token)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(uint(42), userID)

	row, err := s.db.GetAccessToken(s.ctx, 1)
	s.Require().NoError(err)
	s.NotNil(row.LastUsedAt)

	// second lookup is served from the cache
	userID, ok, err = s.issuer.Validate(s.ctx, token)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(uint(42), userID)
}

func (s *IssuerTestSuite) TestValidateRejectsMalformed() {
	for _, token := range []string{"", "abc", "|secret", "0|secret", "1|", "x|secret", "-1|secret"} {
		userID, ok, err := s.issuer.Validate(s.ctx, token)
		s.NoError(err, token)
		s.False(ok, token)
		s.Zero(userID, token)
	}
}

func (s *IssuerTestSuite) TestValidateRejectsWrongSecret() {
	token, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)
	id, _, _ := ParseToken(token)

	forged := formatToken(id, strings.Repeat("0", tokenSecretBytes*2))
	_, ok, err := s.issuer.Validate(s.ctx, forged)
	s.NoError(err)
	s.False(ok)

	// cached entries are checked against the secret too
	_, ok, _ = s.issuer.Validate(s.ctx, token)
	s.Require().True(ok)
	_, ok, err = s.issuer.Validate(s.ctx, forged)
	s.NoError(err)
	s.False(ok)
}

func (s *IssuerTestSuite) TestValidateUnknownToken() {
	_, ok, err := s.issuer.Validate(s.ctx, "999|deadbeef")
	s.NoError(err)
	s.False(ok)
}

func (s *IssuerTestSuite) TestValidateStoreError() {
	s.db.GetAccessTokenError = errors.New("disk on fire")
	_, ok, err := s.issuer.Validate(s.ctx, "1|deadbeef")
	s.Error(err)
	s.False(ok)
}

func (s *IssuerTestSuite) TestRevoke() {
	token, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)
	other, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)

	// warm the cache
	_, ok, _ := s.issuer.Validate(s.ctx, token)
	s.Require().True(ok)

	s.Require().NoError(s.issuer.Revoke(s.ctx, token))

	_, ok, err = s.issuer.Validate(s.ctx, token)
	s.NoError(err)
	s.False(ok)

	// other tokens of the same user survive
	_, ok, err = s.issuer.Validate(s.ctx, other)
	s.NoError(err)
	s.True(ok)

	// revoking twice is a no-op
	s.NoError(s.issuer.Revoke(s.ctx, token))
	s.NoError(s.issuer.Revoke(s.ctx, "garbage"))
	s.Equal(1, s.db.TokenCount())
}

func (s *IssuerTestSuite) TestRevokeWithWrongSecretKeepsToken() {
	token, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)
	id, _, _ := ParseToken(token)

	s.NoError(s.issuer.Revoke(s.ctx, formatToken(id, "nope")))

	_, ok, err := s.issuer.Validate(s.ctx, token)
	s.NoError(err)
	s.True(ok)
}

func (s *IssuerTestSuite) TestRevokeByID() {
	token, err := s.issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)
	_, ok, _ := s.issuer.Validate(s.ctx, token)
	s.Require().True(ok)

	deleted, err := s.issuer.RevokeByID(s.ctx, 1)
	s.Require().NoError(err)
	s.True(deleted)

	_, ok, err = s.issuer.Validate(s.ctx, token)
	s.NoError(err)
	s.False(ok)

	deleted, err = s.issuer.RevokeByID(s.ctx, 1)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *IssuerTestSuite) TestExpiry() {
	now := time.Now()
	issuer := NewIssuer(s.db, s.cache, time.Hour)
	issuer.now = func() time.Time { return now }

	token, err := issuer.Issue(s.ctx, 1, "")
	s.Require().NoError(err)

	_, ok, err := issuer.Validate(s.ctx, token)
	s.Require().NoError(err)
	s.True(ok)

	now = now.Add(2 * time.Hour)
	_, ok, err = issuer.Validate(s.ctx, token)
	s.NoError(err)
	s.False(ok)

	pruned, err := issuer.PruneExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), pruned)
	s.Equal(0, s.db.TokenCount())
}

func (s *IssuerTestSuite) TestConcurrentIssueAndValidate() {
	var wg sync.WaitGroup
	tokens := make(chan string, 20)
	for i := range 20 {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			token, err := s.issuer.Issue(s.ctx, userID, "")
			if err == nil {
				tokens <- token
			}
		}(uint(i + 1))
	}
	wg.Wait()
	close(tokens)

	count := 0
	for token := range tokens {
		count++
		_, ok, err := s.issuer.Validate(s.ctx, token)
		s.NoError(err)
		s.True(ok)
	}
	s.Equal(20, count)
}

func TestIssuerTestSuite(t *testing.T) {
	suite.Run(t, new(IssuerTestSuite))
}

func TestIssuerWithoutCache(t *testing.T) {
	ctx := context.Background()
	issuer := NewIssuer(mock.NewMockDB(), nil, 0)

	token, err := issuer.Issue(ctx, 3, "web")
	require.NoError(t, err)

	userID, ok, err := issuer.Validate(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(3), userID)

	require.NoError(t, issuer.Revoke(ctx, token))
	_, ok, err = issuer.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		token  string
		id     uint
		secret string
		ok     bool
	}{
		{"12|abc", 12, "abc", true},
		{" 7|xyz ", 7, "xyz", true},
		{"1|a|b", 1, "a|b", true},
		{"abc", 0, "", false},
		{"|abc", 0, "", false},
		{"0|abc", 0, "", false},
		{"5|", 0, "", false},
		{"1.5|abc", 0, "", false},
	}

	for _, tt := range tests {
		id, secret, ok := ParseToken(tt.token)
		assert.Equal(t, tt.ok, ok, tt.token)
		assert.Equal(t, tt.id, id, tt.token)
		assert.Equal(t, tt.secret, secret, tt.token)
	}
}
