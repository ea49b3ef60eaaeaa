package handler

import (
	"time"

	"github.com/jon4hz/codevault/internal/advisory"
	coreauth "github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/config"
	"github.com/jon4hz/codevault/internal/scheduler"
)

// viewTTL is how long an opened project view keeps its advisory answers after last use.
const viewTTL = 30 * time.Minute

type Handler struct {
	config     *config.Config
	auth       *coreauth.Service
	advisor    *advisory.Advisor
	tokenCache *cache.TokenCache
	scheduler  *scheduler.Scheduler
	views      *advisory.Views
}

// New creates the HTTP handlers. tokenCache and sched are optional.
func New(cfg *config.Config, svc *coreauth.Service, advisor *advisory.Advisor, tokenCache *cache.TokenCache, sched *scheduler.Scheduler) *Handler {
	return &Handler{
		config:     cfg,
		auth:       svc,
		advisor:    advisor,
		tokenCache: tokenCache,
		scheduler:  sched,
		views:      advisory.NewViews(advisor, viewTTL),
	}
}
