package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/database"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type demoAccount struct {
	Username  string
	AccessKey string
	Name      string
	Email     string
}

var demoAccounts = []demoAccount{
	{Username: "student_01", AccessKey: "learn2code", Name: "Alice Dev", Email: "alice@example.com"},
	{Username: "student_02", AccessKey: "react_rocks", Name: "Bob Scripter", Email: "bob@example.com"},
	{Username: "demo", AccessKey: "123456", Name: "Demo User", Email: "demo@example.com"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo student accounts",
	Long:  `Create or update the demo student accounts. Running it again resets their names and access keys.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		seeds, err := demoSeeds()
		if err != nil {
			return err
		}
		if err := db.SeedUsers(cmd.Context(), seeds); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		log.Info("Seeded demo accounts", "count", len(seeds))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// demoSeeds hashes the demo access keys. bcrypt is slow, so the keys are hashed concurrently.
func demoSeeds() ([]database.UserSeed, error) {
	seeds := make([]database.UserSeed, len(demoAccounts))

	var g errgroup.Group
	for i, account := range demoAccounts {
		g.Go(func() error {
			hash, err := auth.HashPassword(account.AccessKey)
			if err != nil {
				return fmt.Errorf("failed to hash access key of %s: %w", account.Username, err)
			}
			seeds[i] = database.UserSeed{
				Username:     account.Username,
				Name:         account.Name,
				Email:        account.Email,
				PasswordHash: hash,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return seeds, nil
}
