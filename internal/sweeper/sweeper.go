// Package sweeper retires aged "found" reports and tidies their media.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/media"
	"github.com/reunipet/reunipet/internal/model"
	"github.com/reunipet/reunipet/internal/store"
)

// Config controls the retention window and sweep cadence.
type Config struct {
	MaxAge   time.Duration // how long a found report is kept
	Interval time.Duration // how often the sweep runs
}

// Sweeper deletes found records older than the retention window. Media
// cleanup is best-effort; the record deletion is a single atomic batch.
type Sweeper struct {
	store store.Store
	media media.Store
	cfg   Config
	log   zerolog.Logger
}

// New constructs a Sweeper from dependencies.
func New(st store.Store, m media.Store, cfg Config, log zerolog.Logger) *Sweeper {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &Sweeper{store: st, media: m, cfg: cfg, log: log}
}

// Run sweeps on a fixed cadence until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.cfg.Interval).Dur("maxAge", s.cfg.MaxAge).Msg("retention sweeper starting")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("retention sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.MaxAge)
			if n, err := s.Sweep(ctx, cutoff); err != nil {
				s.log.Error().Err(err).Msg("retention sweep failed")
			} else if n > 0 {
				s.log.Info().Int("deleted", n).Time("cutoff", cutoff).Msg("retention sweep completed")
			}
		}
	}
}

// Sweep removes every found record created before cutoff and returns how many
// were deleted. Each record's media is deleted first, best-effort: a media
// failure is logged and never keeps the record alive. All selected records
// are then removed in one atomic batch.
func (s *Sweeper) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	aged, err := s.store.Pets().List(ctx, model.ListPetsRequest{
		Status:        model.StatusFound,
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, err
	}
	if len(aged) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(aged))
	for _, rec := range aged {
		if rec.ImageURL != "" {
			if err := s.media.Delete(ctx, rec.ImageURL); err != nil {
				s.log.Warn().Err(err).Str("recordId", rec.ID).Str("imageUrl", rec.ImageURL).
					Msg("media delete failed, record will be removed anyway")
			}
		}
		ids = append(ids, rec.ID)
	}

	if err := s.store.Pets().DeleteBatch(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
