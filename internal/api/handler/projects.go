package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/api/models"
	"github.com/jon4hz/codevault/internal/catalog"
)

// ListProjects returns the catalog, optionally filtered by language, difficulty and tag.
func (h *Handler) ListProjects(c *gin.Context) {
	var difficulty catalog.Difficulty
	if d := c.Query("difficulty"); d != "" {
		parsed, err := catalog.ParseDifficulty(d)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, models.ValidationError{
				Message: "The selected difficulty is invalid.",
				Errors:  map[string][]string{"difficulty": {"The selected difficulty is invalid."}},
			})
			return
		}
		difficulty = parsed
	}

	projects := catalog.Filter(c.Query("language"), difficulty, c.Query("tag"))

	c.JSON(http.StatusOK, models.ProjectList{
		Projects:  models.ToProjects(projects),
		Languages: catalog.Languages(),
		Tags:      catalog.Tags(),
	})
}

// GetProject returns a single project with its download instructions.
func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ToProjectDetail(project, h.config.ServerURL))
}

// ExplainCommand explains the download command of a project.
// The response is always 200, a failing AI backend yields fallback text.
func (h *Handler) ExplainCommand(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	command := catalog.DownloadCommand(h.config.ServerURL, project)
	c.JSON(http.StatusOK, models.Explanation{
		Command:     command,
		Explanation: h.advisor.ExplainCommand(c.Request.Context(), command),
	})
}

// StudyGuide generates a study guide for a project.
// The response is always 200, a failing AI backend yields fallback text.
func (h *Handler) StudyGuide(c *gin.Context) {
	project, ok := h.project(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.StudyGuide{
		ProjectID: project.ID,
		Guide:     h.advisor.StudyGuide(c.Request.Context(), project),
	})
}

// Download serves a project archive from the downloads directory.
func (h *Handler) Download(c *gin.Context) {
	name := c.Param("file")
	if !catalog.HasArchive(name) {
		c.JSON(http.StatusNotFound, models.MessageResponse{Message: "File not found."})
		return
	}

	path := filepath.Join(h.config.DownloadsDir, name)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error("Failed to stat archive", "path", path, "error", err)
		} else {
			log.Warn("Archive missing from downloads directory", "path", path)
		}
		c.JSON(http.StatusNotFound, models.MessageResponse{Message: "File not found."})
		return
	}

	c.FileAttachment(path, name)
}

func (h *Handler) project(c *gin.Context) (catalog.Project, bool) {
	project, ok := catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.MessageResponse{Message: "Project not found."})
		return catalog.Project{}, false
	}
	return project, true
}
