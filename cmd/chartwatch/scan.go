// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"fmt"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/diff"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/internal/logger"
	"go.astrophena.name/chartwatch/internal/systemd"

	"golang.org/x/time/rate"
)

// scanResult summarizes a scan, for logs and the health check.
type scanResult struct {
	Finished time.Time `json:"finished"`
	Regions  int       `json:"regions"`
	Failed   int       `json:"failed"`
	Events   int       `json:"events"`
}

func (r *scanResult) String() string {
	return fmt.Sprintf("%d regions, %d failed, %d events at %s", r.Regions, r.Failed, r.Events, r.Finished.Format(time.RFC3339))
}

// fetchRegions fetches and filters the charts of all configured regions in
// order. Regions that fail to fetch are logged and left out.
func (w *watcher) fetchRegions(ctx context.Context, mode filter.Mode) (regions []chart.Region, failed int, err error) {
	log := logger.Get(ctx)

	limit := rate.Inf
	if w.throttle > 0 {
		limit = rate.Every(w.throttle)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, code := range w.regions {
		if err := limiter.Wait(ctx); err != nil {
			return nil, failed, err
		}
		r, err := chart.FetchRegion(ctx, w.source, code)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failed, ctx.Err()
			}
			log.Warn("region fetch failed, skipping", "region", code, "error", err)
			failed++
			continue
		}
		r.Entries = w.keywords.Apply(r.Entries, mode, w.ceiling)
		log.Debug("region fetched", "region", code, "in_scope", len(r.Entries))
		regions = append(regions, r)
	}
	return regions, failed, nil
}

// scan runs one monitoring tick.
func (w *watcher) scan(ctx context.Context) error {
	lock, err := w.acquireLock("run")
	if err != nil {
		return err
	}
	defer w.releaseLock(ctx, lock)

	log := logger.Get(ctx)
	store := w.loadStore(ctx)
	mode := w.effectiveMode(store)

	log.Info("scanning", "target", mode.String(), "ceiling", w.ceiling, "regions", len(w.regions))

	regions, failed, err := w.fetchRegions(ctx, mode)
	if err != nil {
		return err
	}

	snapshots := make([]diff.Snapshot, 0, len(regions))
	for _, r := range regions {
		snapshots = append(snapshots, diff.Snapshot{Region: r.Code, Entries: r.Entries})
	}
	events := diff.Apply(store, snapshots, w.ceiling, w.now().UTC())

	for _, ev := range events {
		log.Debug("event", "event", ev.String())
		w.notify(ctx, w.hook.Render(ev))
	}

	res := scanResult{
		Finished: w.now(),
		Regions:  len(regions),
		Failed:   failed,
		Events:   len(events),
	}
	w.lastScan.Store(&res)
	log.Info("scan done", "regions", res.Regions, "failed", res.Failed, "events", res.Events)
	systemd.Notify(func(format string, args ...any) { log.Warn(fmt.Sprintf(format, args...)) }, systemd.Status("last scan: "+res.String()))

	return w.saveStore(ctx, store)
}
