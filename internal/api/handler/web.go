package handler

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/codevault/internal/advisory"
	"github.com/jon4hz/codevault/internal/api/auth"
	"github.com/jon4hz/codevault/internal/api/models"
	coreauth "github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/catalog"
	"github.com/jon4hz/codevault/internal/gravatar"
	"github.com/jon4hz/codevault/web"
)

const accessDeniedMessage = "Access Denied"

// LoginPage renders the login form, or redirects home if the session is still live.
func (h *Handler) LoginPage(c *gin.Context) {
	session := sessions.Default(c)
	if token, _ := session.Get(auth.SessionTokenKey).(string); token != "" {
		if _, ok, err := h.auth.Whoami(c.Request.Context(), token); err == nil && ok {
			c.Redirect(http.StatusFound, "/")
			return
		}
	}

	c.HTML(http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

// LoginSubmit handles the login form. The issued token is kept in the cookie session.
func (h *Handler) LoginSubmit(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Debug("Failed to bind login form", "error", err)
	}
	req.Username = strings.TrimSpace(req.Username)

	deny := func() {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Title":    "Login",
			"Error":    accessDeniedMessage,
			"Username": req.Username,
		})
	}

	if validateLogin(req) != nil {
		deny()
		return
	}

	_, token, err := h.auth.Login(c.Request.Context(), req.Username, req.AccessKey, webTokenName())
	if err != nil {
		log.Debug("Web login rejected", "username", req.Username, "error", err)
		deny()
		return
	}

	session := sessions.Default(c)
	session.Set(auth.SessionTokenKey, token)
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
		if err := h.auth.Tokens().Revoke(c.Request.Context(), token); err != nil {
			log.Error("Failed to revoke unsaved token", "error", err)
		}
		deny()
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// WebLogout revokes the session token and always clears the session.
func (h *Handler) WebLogout(c *gin.Context) {
	session := sessions.Default(c)
	if token, _ := session.Get(auth.SessionTokenKey).(string); token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			log.Warn("Failed to revoke token on logout", "error", err)
		}
	}

	session.Clear()
	if err := session.Save(); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// Dashboard renders the project cards.
func (h *Handler) Dashboard(c *gin.Context) {
	user, _ := auth.CurrentUser(c)

	language := c.Query("language")
	var difficulty catalog.Difficulty
	if d, err := catalog.ParseDifficulty(c.Query("difficulty")); err == nil {
		difficulty = d
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":        "Projects",
		"User":         user,
		"Avatar":       h.avatar(user),
		"Projects":     catalog.Filter(language, difficulty, c.Query("tag")),
		"Languages":    catalog.Languages(),
		"Difficulties": []catalog.Difficulty{catalog.Beginner, catalog.Intermediate, catalog.Advanced},
		"Language":     language,
		"Difficulty":   string(difficulty),
	})
}

// ProjectPage renders the detail view of a project. The advisory texts are not
// part of the render; the page loads them from its view endpoints.
func (h *Handler) ProjectPage(c *gin.Context) {
	user, _ := auth.CurrentUser(c)

	project, ok := catalog.Get(c.Param("id"))
	if !ok {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title":   "Not found",
			"User":    user,
			"Avatar":  h.avatar(user),
			"Status":  http.StatusNotFound,
			"Message": "This project does not exist.",
		})
		return
	}

	command := catalog.DownloadCommand(h.config.ServerURL, project)
	viewID, _ := h.views.Open(user.ID, project, command)

	c.HTML(http.StatusOK, "project.html", gin.H{
		"Title":        project.Title,
		"User":         user,
		"Avatar":       h.avatar(user),
		"Project":      project,
		"Command":      command,
		"DownloadURL":  catalog.DownloadURL(h.config.ServerURL, project),
		"Archive":      h.archiveInfo(project.ZipFileName),
		"ViewID":       viewID,
		"ShowGuide":    c.Query("tab") == "ai",
		"ExplainError": advisory.ExplainErrorText,
		"GuideError":   advisory.GuideErrorText,
	})
}

// ViewExplanation returns the command explanation of an opened view.
// The first call asks the advisor, later calls reuse the answer.
func (h *Handler) ViewExplanation(c *gin.Context) {
	view, ok := h.openView(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.Explanation{
		Command:     view.Command(),
		Explanation: view.Explanation(context.WithoutCancel(c.Request.Context())),
	})
}

// ViewGuide returns the study guide of an opened view, as markdown and rendered HTML.
func (h *Handler) ViewGuide(c *gin.Context) {
	view, ok := h.openView(c)
	if !ok {
		return
	}

	guide := view.Guide(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusOK, models.StudyGuide{
		ProjectID: view.Project().ID,
		Guide:     guide,
		HTML:      string(web.RenderMarkdown(guide)),
	})
}

func (h *Handler) openView(c *gin.Context) (*advisory.View, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		auth.Unauthenticated(c)
		return nil, false
	}

	view, ok := h.views.Get(user.ID, c.Param("view"))
	if !ok {
		c.JSON(http.StatusNotFound, models.MessageResponse{Message: "View not found."})
		return nil, false
	}
	return view, true
}

// archiveInfo returns nil when the archive is not on disk.
func (h *Handler) archiveInfo(name string) fs.FileInfo {
	info, err := os.Stat(filepath.Join(h.config.DownloadsDir, name))
	if err != nil {
		return nil
	}
	return info
}

func (h *Handler) avatar(user *coreauth.PublicUser) string {
	if user == nil {
		return ""
	}
	return gravatar.URL(user.Email, h.config.Gravatar)
}

func webTokenName() string {
	return "web-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}
