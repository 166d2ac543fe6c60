package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	"github.com/urfave/cli/v3"
)

// Stats prints a user's submission counters.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd.String("config"))

	raw := cmd.StringArg("user")
	if raw == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id must be numeric, got %q", shared.ErrInvalidInput, raw)
	}

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	stats, err := store.NewUsageStore(kv).Stats(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]int64{
			"submitted": stats.Submitted,
			"added":     stats.Added,
		}, true)
	}

	r.writePlain("User %d\n", userID)
	r.writePlain("  Links submitted: %d\n", stats.Submitted)
	r.writePlain("  Tracks added:    %d\n", stats.Added)
	return nil
}
