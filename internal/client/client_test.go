package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	validToken = "1|secret"
	demoKey    = "123456"
)

// fakeServer mimics the auth endpoints of the API.
type fakeServer struct {
	mu      sync.Mutex
	tokens  map[string]bool
	logouts int
	devices []string
	fail    bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{tokens: map[string]bool{}}
}

func (f *fakeServer) grant(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = true
}

func (f *fakeServer) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeServer) snapshot() (logouts int, devices []string, live bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts, append([]string(nil), f.devices...), f.tokens[validToken]
}

func (f *fakeServer) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authorized := func(c *gin.Context) bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if f.fail {
			c.JSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server Error"})
			return false
		}
		if !f.tokens[token] {
			c.JSON(http.StatusUnauthorized, models.MessageResponse{Message: "Unauthenticated."})
			return false
		}
		return true
	}

	r.POST("/api/login", func(c *gin.Context) {
		var req models.LoginRequest
		_ = c.ShouldBindJSON(&req)
		if req.Username != "demo" || req.AccessKey != demoKey {
			c.JSON(http.StatusUnauthorized, models.ValidationError{Message: "Invalid credentials"})
			return
		}
		f.mu.Lock()
		f.tokens[validToken] = true
		f.devices = append(f.devices, req.Device)
		f.mu.Unlock()
		c.JSON(http.StatusOK, models.LoginResponse{
			User:  models.User{ID: "3", Username: "demo", Name: "Demo User"},
			Token: validToken,
		})
	})
	r.GET("/api/user", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		c.JSON(http.StatusOK, models.User{ID: "3", Username: "demo", Name: "Demo User"})
	})
	r.POST("/api/logout", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		f.mu.Lock()
		delete(f.tokens, validToken)
		f.logouts++
		f.mu.Unlock()
		c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
	})
	r.GET("/api/projects", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		projects := []models.Project{{ID: "p1", Language: "TypeScript"}, {ID: "p2", Language: "Python"}}
		if lang := c.Query("language"); lang != "" {
			filtered := projects[:0]
			for _, p := range projects {
				if p.Language == lang {
					filtered = append(filtered, p)
				}
			}
			projects = filtered
		}
		c.JSON(http.StatusOK, models.ProjectList{Projects: projects})
	})
	r.GET("/api/projects/:id", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		if c.Param("id") != "p1" {
			c.JSON(http.StatusNotFound, models.MessageResponse{Message: "Project not found."})
			return
		}
		c.JSON(http.StatusOK, models.ProjectDetail{
			Project: models.Project{ID: "p1"},
			Command: "curl -L -o a.zip \"http://x/downloads/a.zip\"",
		})
	})
	r.GET("/api/projects/:id/guide", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		c.JSON(http.StatusOK, models.StudyGuide{ProjectID: c.Param("id"), Guide: "# Guide"})
	})
	r.GET("/api/projects/:id/explain", func(c *gin.Context) {
		if !authorized(c) {
			return
		}
		c.JSON(http.StatusOK, models.Explanation{Command: "curl", Explanation: "downloads"})
	})
	return r
}

type SessionTestSuite struct {
	suite.Suite
	fake    *fakeServer
	server  *httptest.Server
	store   *MemoryStore
	session *Session
	ctx     context.Context
}

func (s *SessionTestSuite) SetupTest() {
	s.fake = newFakeServer()
	s.server = httptest.NewServer(s.fake.router())
	s.store = &MemoryStore{}
	s.session = NewSession(New(s.server.URL+"/"), s.store)
	s.ctx = context.Background()
}

func (s *SessionTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *SessionTestSuite) TestInitWithoutToken() {
	state := s.session.Init(s.ctx)
	s.Nil(state.User)
	s.False(state.Loading)
}

func (s *SessionTestSuite) TestLoginStoresToken() {
	user, err := s.session.Login(s.ctx, "demo", demoKey, "cli@test")
	s.Require().NoError(err)
	s.Equal("demo", user.Username)

	token, err := s.store.Load()
	s.Require().NoError(err)
	s.Equal(validToken, token)
	_, devices, _ := s.fake.snapshot()
	s.Equal([]string{"cli@test"}, devices)

	state := s.session.Current()
	s.Require().NotNil(state.User)
	s.Equal("Demo User", state.User.Name)
}

func (s *SessionTestSuite) TestLoginFailureIsAccessDenied() {
	_, err := s.session.Login(s.ctx, "demo", "wrong", "")
	s.ErrorIs(err, ErrAccessDenied)

	token, _ := s.store.Load()
	s.Empty(token)
	s.Nil(s.session.Current().User)
}

func (s *SessionTestSuite) TestLoginUnreachableServerIsAccessDenied() {
	s.server.Close()

	_, err := s.session.Login(s.ctx, "demo", demoKey, "")
	s.ErrorIs(err, ErrAccessDenied)
}

func (s *SessionTestSuite) TestInitRestoresSession() {
	s.Require().NoError(s.store.Save(validToken))
	s.fake.grant(validToken)

	state := s.session.Init(s.ctx)
	s.Require().NotNil(state.User)
	s.Equal("demo", state.User.Username)
	s.Equal(validToken, s.session.Token())
}

func (s *SessionTestSuite) TestInitClearsRejectedToken() {
	s.Require().NoError(s.store.Save("9|stale"))

	state := s.session.Init(s.ctx)
	s.Nil(state.User)

	token, _ := s.store.Load()
	s.Empty(token)
}

func (s *SessionTestSuite) TestInitClearsTokenOnServerError() {
	s.Require().NoError(s.store.Save(validToken))
	s.fake.grant(validToken)
	s.fake.setFail(true)

	state := s.session.Init(s.ctx)
	s.Nil(state.User)

	token, _ := s.store.Load()
	s.Empty(token)
}

func (s *SessionTestSuite) TestLogout() {
	_, err := s.session.Login(s.ctx, "demo", demoKey, "")
	s.Require().NoError(err)

	s.session.Logout(s.ctx)

	logouts, _, live := s.fake.snapshot()
	s.Equal(1, logouts)
	s.False(live)
	s.Nil(s.session.Current().User)
	token, _ := s.store.Load()
	s.Empty(token)
}

func (s *SessionTestSuite) TestLogoutClearsEvenWhenServerFails() {
	_, err := s.session.Login(s.ctx, "demo", demoKey, "")
	s.Require().NoError(err)
	s.fake.setFail(true)

	s.session.Logout(s.ctx)

	s.Nil(s.session.Current().User)
	token, _ := s.store.Load()
	s.Empty(token)
}

func (s *SessionTestSuite) TestClientCalls() {
	_, err := s.session.Login(s.ctx, "demo", demoKey, "")
	s.Require().NoError(err)
	api, token := s.session.API(), s.session.Token()

	list, err := api.Projects(s.ctx, token, ProjectFilter{Language: "Python"})
	s.Require().NoError(err)
	s.Require().Len(list.Projects, 1)
	s.Equal("p2", list.Projects[0].ID)

	detail, err := api.Project(s.ctx, token, "p1")
	s.Require().NoError(err)
	s.Contains(detail.Command, "curl -L -o")

	_, err = api.Project(s.ctx, token, "nope")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal("Project not found.", apiErr.Message)

	guide, err := api.StudyGuide(s.ctx, token, "p1")
	s.Require().NoError(err)
	s.Equal("# Guide", guide.Guide)

	explanation, err := api.Explain(s.ctx, token, "p1")
	s.Require().NoError(err)
	s.Equal("downloads", explanation.Explanation)

	_, err = api.Whoami(s.ctx, "2|bogus")
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *SessionTestSuite) TestClientLoginInvalidCredentials() {
	_, err := New(s.server.URL).Login(s.ctx, "demo", "nope", "")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewFileStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(validToken))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, validToken, token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAPIErrorMessage(t *testing.T) {
	assert.Equal(t, "API request failed with status 500", (&APIError{StatusCode: 500}).Error())
	assert.Equal(t, "API request failed with status 404: Project not found.", (&APIError{StatusCode: 404, Message: "Project not found."}).Error())
}
