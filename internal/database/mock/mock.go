package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jon4hz/codevault/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Token storage
	tokens      map[uint]*database.AccessToken
	nextTokenID uint

	// Error simulation
	SeedUsersError                 error
	GetUserByIDError               error
	GetUserByUsernameError         error
	GetAllUsersError               error
	CreateAccessTokenError         error
	GetAccessTokenError            error
	GetAccessTokensError           error
	TouchAccessTokenError          error
	DeleteAccessTokenError         error
	DeleteExpiredAccessTokensError error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:       make(map[uint]*database.User),
		nextUserID:  1,
		tokens:      make(map[uint]*database.AccessToken),
		nextTokenID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.tokens = make(map[uint]*database.AccessToken)
	m.nextTokenID = 1

	m.SeedUsersError = nil
	m.GetUserByIDError = nil
	m.GetUserByUsernameError = nil
	m.GetAllUsersError = nil
	m.CreateAccessTokenError = nil
	m.GetAccessTokenError = nil
	m.GetAccessTokensError = nil
	m.TouchAccessTokenError = nil
	m.DeleteAccessTokenError = nil
	m.DeleteExpiredAccessTokensError = nil
}

func (m *MockDB) Close() error {
	return nil
}

// User operations

func (m *MockDB) SeedUsers(ctx context.Context, seeds []database.UserSeed) error {
	if m.SeedUsersError != nil {
		return m.SeedUsersError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, seed := range seeds {
		var existing *database.User
		for _, user := range m.users {
			if user.Username == seed.Username {
				existing = user
				break
			}
		}
		if existing == nil {
			existing = &database.User{Username: seed.Username}
			existing.ID = m.nextUserID
			existing.CreatedAt = time.Now()
			m.nextUserID++
			m.users[existing.ID] = existing
		}
		existing.Name = seed.Name
		existing.Email = seed.Email
		existing.PasswordHash = seed.PasswordHash
		existing.UpdatedAt = time.Now()
	}

	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	u := *user
	return &u, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}

	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetAllUsers(ctx context.Context) ([]database.User, error) {
	if m.GetAllUsersError != nil {
		return nil, m.GetAllUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]database.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

// Token operations

func (m *MockDB) CreateAccessToken(ctx context.Context, token *database.AccessToken) error {
	if m.CreateAccessTokenError != nil {
		return m.CreateAccessTokenError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token.ID = m.nextTokenID
	m.nextTokenID++
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	t := *token
	m.tokens[token.ID] = &t

	return nil
}

func (m *MockDB) GetAccessToken(ctx context.Context, id uint) (*database.AccessToken, error) {
	if m.GetAccessTokenError != nil {
		return nil, m.GetAccessTokenError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	token, ok := m.tokens[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	t := *token
	return &t, nil
}

func (m *MockDB) GetAccessTokens(ctx context.Context) ([]database.AccessToken, error) {
	if m.GetAccessTokensError != nil {
		return nil, m.GetAccessTokensError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := make([]database.AccessToken, 0, len(m.tokens))
	for _, token := range m.tokens {
		t := *token
		if user, ok := m.users[t.UserID]; ok {
			t.User = *user
		}
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID > tokens[j].ID })

	return tokens, nil
}

func (m *MockDB) TouchAccessToken(ctx context.Context, id uint, usedAt time.Time) error {
	if m.TouchAccessTokenError != nil {
		return m.TouchAccessTokenError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if token, ok := m.tokens[id]; ok {
		token.LastUsedAt = &usedAt
	}

	return nil
}

func (m *MockDB) DeleteAccessToken(ctx context.Context, id uint, tokenHash string) (bool, error) {
	if m.DeleteAccessTokenError != nil {
		return false, m.DeleteAccessTokenError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[id]
	if !ok || token.TokenHash != tokenHash {
		return false, nil
	}
	delete(m.tokens, id)

	return true, nil
}

func (m *MockDB) DeleteAccessTokenByID(ctx context.Context, id uint) (bool, error) {
	if m.DeleteAccessTokenError != nil {
		return false, m.DeleteAccessTokenError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[id]; !ok {
		return false, nil
	}
	delete(m.tokens, id)

	return true, nil
}

func (m *MockDB) DeleteExpiredAccessTokens(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredAccessTokensError != nil {
		return 0, m.DeleteExpiredAccessTokensError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, token := range m.tokens {
		if token.Expired(now) {
			delete(m.tokens, id)
			deleted++
		}
	}

	return deleted, nil
}

// TokenCount returns the number of stored tokens.
func (m *MockDB) TokenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
