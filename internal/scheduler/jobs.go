package scheduler

import (
	"context"

	"github.com/go-co-op/gocron/v2"
)

// TokenPruneJobID is the ID of the expired token cleanup job.
const TokenPruneJobID = "prune_tokens"

// TokenPruner deletes expired access tokens.
type TokenPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// AddTokenPruneJob schedules the expired token cleanup on a cron schedule.
func (s *Scheduler) AddTokenPruneJob(schedule string, pruner TokenPruner) error {
	return s.AddJob(
		TokenPruneJobID,
		"Prune Tokens",
		"Deletes expired access tokens",
		schedule,
		gocron.CronJob(schedule, false),
		func(ctx context.Context) error {
			deleted, err := pruner.PruneExpired(ctx)
			if err != nil {
				return err
			}
			if deleted > 0 {
				s.log.Info("Pruned expired tokens", "count", deleted)
			}
			return nil
		},
	)
}
