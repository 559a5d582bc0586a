package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Cleaner periodically purges readings that have outlived their retention
// deadline. It stands in for the managed store's native TTL mechanism.
type Cleaner struct {
	store    Store
	interval time.Duration
	logger   zerolog.Logger
}

// NewCleaner creates a retention cleaner. A non-positive interval
// defaults to one hour.
func NewCleaner(s Store, interval time.Duration, logger zerolog.Logger) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleaner{store: s, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until the context is canceled.
// An initial sweep happens immediately.
func (c *Cleaner) Run(ctx context.Context) {
	c.sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleaner) sweep(ctx context.Context) {
	purged, err := c.store.PurgeExpired(ctx, time.Now())
	if err != nil {
		c.logger.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if purged > 0 {
		c.logger.Info().Int64("purged", purged).Msg("expired readings removed")
	}
}
