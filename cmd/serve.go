package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/advisory"
	"github.com/jon4hz/codevault/internal/api"
	"github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/database"
	"github.com/jon4hz/codevault/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CodeVault server",
	Long:  `Start the CodeVault server. It serves the JSON API, the web frontend and the project archives.`,
	Example: `codevault serve --config config.yml
codevault serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokenCache := cache.NewTokenCache(cfg.Cache)
	issuer := auth.NewIssuer(db, tokenCache, cfg.Auth.TokenTTL)
	svc := auth.NewService(db, issuer)

	advisor := advisory.NewFromConfig(ctx, cfg.AI)
	if !advisor.Enabled() {
		log.Warn("No AI api key configured, study guides and explanations use fallback text")
	}

	sched, err := startScheduler(ctx, issuer, cfg.Auth.PruneSchedule)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	if sched != nil {
		defer sched.Stop() //nolint:errcheck
	}

	server, err := api.New(cfg, svc, advisor, tokenCache, sched, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	log.Info("codevault started successfully", "listen", cfg.Listen, "url", cfg.ServerURL)
	if err := server.Run(ctx); err != nil {
		log.Error("API server error", "error", err)
	}
	log.Info("shutting down gracefully...")
}

// startScheduler runs the token prune job. Tokens never expire without a ttl,
// so no scheduler is started in that case.
func startScheduler(ctx context.Context, issuer *auth.Issuer, schedule string) (*scheduler.Scheduler, error) {
	if issuer.TTL() <= 0 {
		return nil, nil
	}

	sched, err := scheduler.New()
	if err != nil {
		return nil, err
	}
	if err := sched.AddTokenPruneJob(schedule, issuer); err != nil {
		_ = sched.Stop()
		return nil, err
	}

	// catch tokens that expired while the server was down
	if _, err := issuer.PruneExpired(ctx); err != nil {
		log.Warn("Failed to prune expired tokens", "error", err)
	}

	sched.Start()
	return sched, nil
}
