// Package sweep runs the periodic expiry pass over the request ledger.
package sweep

import (
	"context"
	"time"

	"joingate/internal/gate"
	"joingate/internal/store"
	"joingate/internal/texts"

	"go.uber.org/zap"
)

const DefaultInterval = 10 * time.Second

// Sweeper scans for requests sitting past their token expiry and forces them
// into expired through the gate's failure action. It shares the ledger's
// conditional-transition guard with inline handling, so a user pressing a
// button in the same instant cannot be clobbered: one actor wins, the other
// no-ops.
type Sweeper struct {
	Ledger   *store.Ledger
	Gate     *gate.Gate
	Interval time.Duration

	now func() time.Time
}

func New(ledger *store.Ledger, g *gate.Gate, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Sweeper{
		Ledger:   ledger,
		Gate:     g,
		Interval: interval,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled. Store errors skip the tick; they never
// kill the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	zap.L().Debug("Expiry sweeper attached", zap.Duration("tick_every", s.Interval))

	for {
		select {
		case <-ctx.Done():
			zap.L().Debug("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one expiry pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()

	stale, err := s.Ledger.ExpiredLanguage(now)
	if err != nil {
		zap.L().Error("Failed to scan for expired language requests", zap.Error(err))
	} else {
		for i := range stale {
			s.Gate.ExpireRequest(ctx, &stale[i], texts.Expired(texts.BaseLang))
		}
	}

	stale, err = s.Ledger.ExpiredVerification(now)
	if err != nil {
		zap.L().Error("Failed to scan for expired verification requests", zap.Error(err))
		return
	}

	for i := range stale {
		s.Gate.ExpireRequest(ctx, &stale[i], texts.Expired(stale[i].Language))
	}
}
