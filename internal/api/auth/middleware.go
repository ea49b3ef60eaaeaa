package auth

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/api/models"
	coreauth "github.com/jon4hz/codevault/internal/auth"
)

const (
	contextUserKey  = "user"
	contextTokenKey = "token"

	// SessionTokenKey is the cookie session slot that holds the browser's bearer token.
	SessionTokenKey = "token"
)

// Provider authenticates requests with bearer tokens.
type Provider struct {
	svc *coreauth.Service
}

// New creates a new auth provider.
func New(svc *coreauth.Service) *Provider {
	return &Provider{svc: svc}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireToken rejects requests without a live bearer token.
func (p *Provider) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if !p.Authenticate(c, token) {
			if !c.IsAborted() {
				Unauthenticated(c)
			}
			return
		}
		c.Next()
	}
}

// OptionalToken attaches the user of a live bearer token if there is one.
func (p *Provider) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token != "" {
			p.Authenticate(c, token)
		}
		if !c.IsAborted() {
			c.Next()
		}
	}
}

// RequireSession protects web pages. The token lives in the cookie session,
// a dead token clears the session and sends the browser to the login page.
func (p *Provider) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(SessionTokenKey).(string)

		if !p.Authenticate(c, token) {
			if c.IsAborted() {
				return
			}
			if token != "" {
				session.Delete(SessionTokenKey)
				if err := session.Save(); err != nil {
					log.Error("Failed to clear session", "error", err)
				}
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Authenticate validates token and stores its owner in the context.
// Store failures abort the request with 500.
func (p *Provider) Authenticate(c *gin.Context, token string) bool {
	if token == "" {
		return false
	}

	user, ok, err := p.svc.Whoami(c.Request.Context(), token)
	if err != nil {
		log.Error("Failed to validate token", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.MessageResponse{Message: "Server Error"})
		return false
	}
	if !ok {
		return false
	}

	c.Set(contextUserKey, user)
	c.Set(contextTokenKey, token)
	return true
}

// Unauthenticated aborts with the JSON body of a rejected protected call.
func Unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.MessageResponse{Message: "Unauthenticated."})
}

// CurrentUser returns the user authenticated for this request.
func CurrentUser(c *gin.Context) (*coreauth.PublicUser, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*coreauth.PublicUser)
	return user, ok
}

// CurrentToken returns the bearer token that authenticated this request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(contextTokenKey)
}
