package runstate

import (
	"context"
	"log/slog"
	"time"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

const (
	defaultPollInterval = 2 * time.Second
	// faster cadence while a run is believed active
	activePollInterval = 1 * time.Second
)

// SummarySource is the slice of the SDK the poller needs.
type SummarySource interface {
	Summary(ctx context.Context) (*cwsdk.RunSummary, error)
}

// Poller drives the reconciler from the polled summary endpoint. Each tick
// schedules the next one only after the current fetch settles, so slow
// responses never pile up overlapping requests.
type Poller struct {
	Reconciler *Reconciler
	Source     SummarySource
	Hydrator   *Hydrator
	OnFinished func(FinishedRun)
	OnUpdate   func(Snapshot)

	Interval time.Duration
}

// Run polls until ctx is cancelled. Fetch failures are logged and skipped;
// the next tick proceeds normally.
func (p *Poller) Run(ctx context.Context) error {
	drift := time.NewTicker(driftAfter)
	defer drift.Stop()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-drift.C:
			p.Reconciler.Tick()
			if p.OnUpdate != nil {
				p.OnUpdate(p.Reconciler.Snapshot())
			}

		case <-timer.C:
			p.tick(ctx)
			timer.Reset(p.interval())
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	sum, err := p.Source.Summary(ctx)
	if err != nil {
		slog.Debug("run summary poll failed", "error", err)
		return
	}

	finished := p.Reconciler.Apply(sum)
	if p.OnUpdate != nil {
		p.OnUpdate(p.Reconciler.Snapshot())
	}
	if finished == nil {
		return
	}

	if finished.NeedsHydration && p.Hydrator != nil {
		if p.Hydrator.Hydrate(ctx, finished) {
			p.Reconciler.SetFeatures(finished.Features)
		}
	}
	if p.OnFinished != nil {
		p.OnFinished(*finished)
	}
}

func (p *Poller) interval() time.Duration {
	base := p.Interval
	if base <= 0 {
		base = defaultPollInterval
	}
	if p.Reconciler.Snapshot().Running {
		return min(base, activePollInterval)
	}
	return base
}
