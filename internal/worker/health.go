package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/trace/internal/client/models"
	"github.com/dmitrijs2005/trace/internal/logging"
)

type Mode int32

const (
	ModeUnknown Mode = iota
	ModeOnline
	ModeOffline
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	default:
		return "unknown"
	}
}

const pingTimeout = 3 * time.Second

// Pinger is satisfied by *gateway.Client.
type Pinger interface {
	Health(ctx context.Context) (models.Health, error)
}

// HealthWatcher pings the backend on a ticker and tracks whether it is
// reachable. It only logs mode changes; message handling is not gated on it.
type HealthWatcher struct {
	pinger   Pinger
	interval time.Duration
	logger   logging.Logger
	mode     atomic.Int32
}

func NewHealthWatcher(p Pinger, interval time.Duration, l logging.Logger) *HealthWatcher {
	return &HealthWatcher{pinger: p, interval: interval, logger: l.With("module", "health")}
}

func (w *HealthWatcher) Mode() Mode {
	return Mode(w.mode.Load())
}

// Run checks once immediately and then every interval until ctx is done.
// A non-positive interval disables the watcher.
func (w *HealthWatcher) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}

	w.check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *HealthWatcher) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	h, err := w.pinger.Health(pctx)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if w.setMode(ModeOffline) {
			w.logger.Warn(ctx, "backend unreachable", "error", err)
		}
		return
	}
	if w.setMode(ModeOnline) {
		w.logger.Info(ctx, "backend reachable", "status", h.Status)
	}
}

// setMode reports whether the mode changed.
func (w *HealthWatcher) setMode(m Mode) bool {
	return Mode(w.mode.Swap(int32(m))) != m
}
