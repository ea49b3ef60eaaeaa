package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/codevault/internal/api/models"
	"github.com/jon4hz/codevault/internal/catalog"
)

// Healthz reports the state of the server's dependencies.
func (h *Handler) Healthz(c *gin.Context) {
	resp := models.Health{
		Status: "ok",
		AI:     h.advisor.Enabled(),
	}

	if h.tokenCache != nil {
		resp.Cache = models.ToCacheStats(h.tokenCache.GetStats())
	}

	for _, p := range catalog.All() {
		size := int64(-1)
		if info, err := os.Stat(filepath.Join(h.config.DownloadsDir, p.ZipFileName)); err == nil {
			size = info.Size()
		}
		resp.Archives = append(resp.Archives, models.ToArchive(p.ZipFileName, size))
	}

	if h.scheduler != nil {
		resp.Jobs = models.ToJobStatuses(h.scheduler.GetJobs())
	}

	c.JSON(http.StatusOK, resp)
}
