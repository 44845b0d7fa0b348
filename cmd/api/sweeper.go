package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/angelmondragon/storefront/internal/sessionstore"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	defaultSweepInterval = 10 * time.Minute
	defaultIdleEvict     = 30 * time.Minute
	maxSweepBackoff      = time.Hour
	jitterWindow         = 5 * time.Second
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// IdleEvictor drops in-process state that has not been used for a while.
type IdleEvictor interface {
	EvictIdle(idle time.Duration) int
}

// SweeperParams configures a Sweeper. Purger is nil for backends that expire
// entries on their own.
type SweeperParams struct {
	Purger    sessionstore.Purger
	Evictors  map[string]IdleEvictor
	IdleEvict time.Duration
	Logger    *logger.Logger
	Interval  time.Duration
}

// Sweeper periodically removes expired session entries from backends that do
// not expire them on their own and drops idle per-session carts and checkouts.
type Sweeper struct {
	purger    sessionstore.Purger
	evictors  map[string]IdleEvictor
	idleEvict time.Duration
	logg      *logger.Logger
	interval  time.Duration
	sleep     func(context.Context, time.Duration) error
}

func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Purger == nil && len(params.Evictors) == 0 {
		return nil, errors.New("purger or evictors are required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	idle := params.IdleEvict
	if idle <= 0 {
		idle = defaultIdleEvict
	}
	return &Sweeper{
		purger:    params.Purger,
		evictors:  params.Evictors,
		idleEvict: idle,
		logg:      params.Logger,
		interval:  interval,
		sleep:     sleepCtx,
	}, nil
}

// Run sweeps until ctx is canceled. Failures back off up to maxSweepBackoff.
func (s *Sweeper) Run(ctx context.Context) error {
	ctx = s.logg.WithComponent(ctx, "session_sweeper")
	backoff := s.interval

	for {
		if err := s.sleep(ctx, withJitter(backoff)); err != nil {
			s.logg.Info(ctx, "session sweeper stopped")
			return nil
		}

		s.evict(ctx)
		if _, err := s.sweep(ctx); err != nil {
			backoff = nextBackoff(backoff, s.interval, maxSweepBackoff)
			continue
		}
		backoff = s.interval
	}
}

func (s *Sweeper) evict(ctx context.Context) {
	for name, evictor := range s.evictors {
		if n := evictor.EvictIdle(s.idleEvict); n > 0 {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{"cache": name, "evicted": n}), "idle sessions evicted")
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) (int64, error) {
	if s.purger == nil {
		return 0, nil
	}
	removed, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logg.Error(ctx, "session sweep failed", err)
		return 0, err
	}
	if removed > 0 {
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "expired sessions purged")
	}
	return removed, nil
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current < base {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
