package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/advisory"
	"github.com/jon4hz/codevault/internal/api/auth"
	"github.com/jon4hz/codevault/internal/api/handler"
	coreauth "github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/config"
	"github.com/jon4hz/codevault/internal/scheduler"
	"github.com/jon4hz/codevault/internal/static"
	"github.com/jon4hz/codevault/web"
)

const sessionName = "codevault_session"

type Server struct {
	cfg          *config.Config
	ginEngine    *gin.Engine
	httpServer   *http.Server
	authProvider *auth.Provider
	handler      *handler.Handler
}

// New creates the HTTP server and registers all routes.
func New(cfg *config.Config, svc *coreauth.Service, advisor *advisory.Advisor, tokenCache *cache.TokenCache, sched *scheduler.Scheduler, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc == nil || advisor == nil {
		return nil, fmt.Errorf("auth service and advisor are required")
	}

	if !debug && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:          cfg,
		ginEngine:    gin.New(),
		authProvider: auth.New(svc),
		handler:      handler.New(cfg, svc, advisor, tokenCache, sched),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.cfg.ServerURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(sessionName, store))
}

func (s *Server) setupRoutes() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	s.ginEngine.SetHTMLTemplate(tmpl)

	staticFS, err := static.FS()
	if err != nil {
		return err
	}

	s.ginEngine.Use(gin.Recovery(), requestID(), requestLogger())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".zip"})))
	s.setupSession()

	s.ginEngine.StaticFS("/static", http.FS(staticFS))
	s.ginEngine.GET("/downloads/:file", s.handler.Download)
	s.ginEngine.GET("/healthz", s.handler.Healthz)

	// The root auth paths serve both the JSON API and the browser forms.
	s.ginEngine.GET("/login", s.handler.LoginPage)
	s.ginEngine.POST("/login", s.byClient(s.handler.Login, s.handler.LoginSubmit))
	s.ginEngine.GET("/user", s.authProvider.OptionalToken(), s.handler.User)
	s.ginEngine.POST("/logout", s.byClient(s.apiLogout, s.handler.WebLogout))

	api := s.ginEngine.Group("/api")
	api.POST("/login", s.handler.Login)
	api.GET("/user", s.authProvider.OptionalToken(), s.handler.User)
	api.POST("/logout", s.authProvider.RequireToken(), s.handler.Logout)

	projects := api.Group("/projects")
	projects.Use(s.authProvider.RequireToken())
	projects.GET("", s.handler.ListProjects)
	projects.GET("/:id", s.handler.GetProject)
	projects.GET("/:id/explain", s.handler.ExplainCommand)
	projects.GET("/:id/guide", s.handler.StudyGuide)

	pages := s.ginEngine.Group("/")
	pages.Use(s.authProvider.RequireSession())
	pages.GET("/", s.handler.Dashboard)
	pages.GET("/projects/:id", s.handler.ProjectPage)
	pages.GET("/views/:view/explanation", s.handler.ViewExplanation)
	pages.GET("/views/:view/guide", s.handler.ViewGuide)

	return nil
}

// byClient routes API clients to apiHandler and browsers to webHandler.
// API clients send JSON or a bearer token. Requests that look like neither
// are treated as API calls.
func (s *Server) byClient(apiHandler, webHandler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAPIRequest(c) || !isBrowserRequest(c) {
			apiHandler(c)
			return
		}
		webHandler(c)
	}
}

func (s *Server) apiLogout(c *gin.Context) {
	if !s.authProvider.Authenticate(c, auth.BearerToken(c)) {
		if !c.IsAborted() {
			auth.Unauthenticated(c)
		}
		return
	}
	s.handler.Logout(c)
}

func isAPIRequest(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON ||
		strings.Contains(c.GetHeader("Accept"), gin.MIMEJSON) ||
		auth.BearerToken(c) != ""
}

// isBrowserRequest reports whether the request came from a page.
// Form posts and navigations count, as does any request with the session cookie.
func isBrowserRequest(c *gin.Context) bool {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		return true
	}
	if c.GetHeader("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	_, err := c.Cookie(sessionName)
	return err == nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting API server", "listen", s.cfg.Listen)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down API server")
	return s.httpServer.Shutdown(shutdownCtx)
}
