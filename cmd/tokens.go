package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/config"
	"github.com/jon4hz/codevault/internal/database"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage issued access tokens",
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued access tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIssuer(func(issuer *auth.Issuer) error {
			tokens, err := issuer.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			if len(tokens) == 0 {
				fmt.Println("No tokens issued.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tNAME\tCREATED\tLAST USED\tEXPIRES") //nolint:errcheck
			for _, t := range tokens {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck
					t.ID, t.User.Username, t.Name,
					timediff.TimeDiff(t.CreatedAt), optionalTime(t.LastUsedAt, "never"), optionalTime(t.ExpiresAt, "-"))
			}
			return w.Flush()
		})
	},
}

var tokensPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired access tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withIssuer(func(issuer *auth.Issuer) error {
			deleted, err := issuer.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("Pruned expired tokens", "count", deleted)
			return nil
		})
	},
}

var tokensRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke an access token by its ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 0)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid token id %q", args[0])
		}

		return withIssuer(func(issuer *auth.Issuer) error {
			deleted, err := issuer.RevokeByID(cmd.Context(), uint(id))
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("token %d not found", id)
			}
			log.Info("Revoked token", "id", id)
			return nil
		})
	},
}

func init() {
	tokensCmd.AddCommand(tokensListCmd, tokensPruneCmd, tokensRevokeCmd)
	rootCmd.AddCommand(tokensCmd)
}

// withIssuer opens the database and runs fn against an issuer.
// Only a shared redis cache is attached. A server's in-memory entries expire on their own ttl.
func withIssuer(fn func(*auth.Issuer) error) error {
	cfg := loadConfig()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	var tokenCache *cache.TokenCache
	if cfg.Cache.Type == config.CacheTypeRedis {
		tokenCache = cache.NewTokenCache(cfg.Cache)
	}

	return fn(auth.NewIssuer(db, tokenCache, cfg.Auth.TokenTTL))
}

func optionalTime(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return timediff.TimeDiff(*t)
}
