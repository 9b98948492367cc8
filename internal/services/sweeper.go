package services

import (
	"context"
	"time"

	applog "wedmarket/internal/log"
)

// ExpirySweeper deletes advertisements that are still flagged active after
// their end_date. Failures are logged and left for the next run.
type ExpirySweeper struct {
	Ads      AdStore
	Interval time.Duration
	Now      func() time.Time
}

func NewExpirySweeper(ads AdStore, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweeper{Ads: ads, Interval: interval, Now: time.Now}
}

// SweepOnce deletes every expired ad and returns how many went.
func (w *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := w.Ads.Expired(ctx, w.Now())
	if err != nil {
		applog.Warn(nil, "ads.sweep.read.fail", err, nil)
		return 0, err
	}
	n := 0
	for _, ad := range expired {
		if err := w.Ads.Delete(ctx, ad.ID); err != nil {
			applog.Warn(nil, "ads.sweep.delete.fail", err, map[string]any{"id": ad.ID})
			continue
		}
		n++
	}
	if len(expired) > 0 {
		applog.Info(nil, "ads.sweep", map[string]any{"expired": len(expired), "deleted": n})
	}
	return n, nil
}

// Run sweeps once immediately, then every Interval until ctx is done.
func (w *ExpirySweeper) Run(ctx context.Context) {
	_, _ = w.SweepOnce(ctx)
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = w.SweepOnce(ctx)
		}
	}
}
