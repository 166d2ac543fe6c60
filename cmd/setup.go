package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/mixtaper/internal/shared"
	"github.com/desertthunder/mixtaper/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup creates a starter config file and verifies the Redis connection.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Created %s — fill in your Telegram and Spotify credentials\n", configPath)
	} else {
		r.writePlain("✓ Config file already exists at %s\n", configPath)
	}

	r.reloadConfig(configPath)

	if cmd.Bool("skip-redis") {
		return nil
	}

	kv, err := r.openStore()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if redisStore, ok := kv.(*store.RedisStore); ok {
		if err := redisStore.Ping(ctx); err != nil {
			return fmt.Errorf("%w: redis ping failed: %v", shared.ErrServiceUnavailable, err)
		}
	}

	r.writePlain("✓ Redis connection OK (%s)\n", r.config.Redis.URL)
	return nil
}
