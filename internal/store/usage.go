package store

import (
	"context"
	"fmt"
	"strconv"
)

// Usage counter fields.
const (
	UsageFieldSubmitted = "submitted" // links a user posted that entered the pipeline
	UsageFieldAdded     = "added"     // track URIs actually inserted on the user's behalf
)

// UsageStats is a snapshot of one user's counters.
type UsageStats struct {
	Submitted int64
	Added     int64
}

// UsageStore tracks per-user submission counters.
type UsageStore struct {
	kv KV
}

// NewUsageStore creates a UsageStore over the given KV.
//
// Increments require the KV to also implement [Counter]; reads work on any KV.
func NewUsageStore(kv KV) *UsageStore {
	return &UsageStore{kv: kv}
}

// Record adds to a user's counter for the given field.
func (u *UsageStore) Record(ctx context.Context, userID int64, field string, delta int64) error {
	counter, ok := u.kv.(Counter)
	if !ok {
		return fmt.Errorf("store does not support counters")
	}
	if _, err := counter.Incr(ctx, UsageKey(userID, field), delta); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Stats reads a user's counters. Missing counters read as zero.
func (u *UsageStore) Stats(ctx context.Context, userID int64) (UsageStats, error) {
	var stats UsageStats

	for _, field := range []struct {
		name   string
		target *int64
	}{
		{UsageFieldSubmitted, &stats.Submitted},
		{UsageFieldAdded, &stats.Added},
	} {
		value, ok, err := u.kv.Get(ctx, UsageKey(userID, field.name))
		if err != nil {
			return stats, fmt.Errorf("failed to read usage: %w", err)
		}
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return stats, fmt.Errorf("corrupt usage counter %s: %w", field.name, err)
		}
		*field.target = n
	}

	return stats, nil
}
