// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/schedule"
	"go.astrophena.name/chartwatch/internal/cli"
	"go.astrophena.name/chartwatch/internal/logger"
	"go.astrophena.name/chartwatch/internal/web"
)

const logLines = 1000

// jobs returns the daemon schedule: hourly scans, a daily digest at 23:59 and
// a command poll every minute.
func (w *watcher) jobs() []schedule.Job {
	return []schedule.Job{
		{Name: "scan", Spec: "0 * * * *", Run: w.skipIfLocked(w.scan)},
		{Name: "digest", Spec: "59 23 * * *", Run: w.digest},
		{Name: "poll", Spec: "* * * * *", Run: w.skipIfLocked(w.poll)},
	}
}

// skipIfLocked turns lock contention with another process into a logged skip.
func (w *watcher) skipIfLocked(f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := f(ctx)
		if errors.Is(err, errAlreadyRunning) {
			logger.Get(ctx).Info("another run holds the lock, skipping", "error", err)
			return nil
		}
		return err
	}
}

func (w *watcher) serve(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	// Tee logs into a ring buffer for /debug/logs.
	logs := logger.NewStreamer(logLines)
	l := logger.New(io.MultiWriter(env.Stderr, logs))
	l.Level.Set(logger.Get(ctx).Level.Level())
	ctx = logger.Put(ctx, l)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := w.adminMux(logs)
	srv := &web.Server{
		Addr:          w.adminAddr,
		Mux:           mux,
		NotifySystemd: true,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx)
		if err != nil {
			cancel()
		}
		errCh <- err
	}()

	if err := schedule.Run(ctx, time.Local, w.jobs()); err != nil {
		cancel()
		<-errCh
		return err
	}
	cancel()
	return <-errCh
}

func (w *watcher) adminMux(logs logger.Streamer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			web.RespondJSONError(rw, r, web.ErrNotFound)
			return
		}
		http.Redirect(rw, r, "/api/state", http.StatusFound)
	})
	mux.HandleFunc("GET /api/state", func(rw http.ResponseWriter, r *http.Request) {
		web.RespondJSON(rw, w.loadStore(r.Context()))
	})
	mux.HandleFunc("GET /api/status", func(rw http.ResponseWriter, r *http.Request) {
		s := w.settings(w.loadStore(r.Context()))
		web.RespondJSON(rw, map[string]any{
			"target":      s.Mode.String(),
			"countries":   s.Countries,
			"top_limit":   s.Ceiling,
			"throttle_ms": s.Throttle.Milliseconds(),
			"source":      s.Source,
			"last_scan":   w.lastScan.Load(),
		})
	})
	if logs != nil {
		mux.Handle("GET /debug/logs", logs)
	}

	web.Health(mux).RegisterFunc("scan", func() (string, bool) {
		res := w.lastScan.Load()
		if res == nil {
			return "no scan yet", true
		}
		if res.Regions == 0 && res.Failed > 0 {
			return fmt.Sprintf("all %d regions failed at %s", res.Failed, res.Finished.Format(time.RFC3339)), false
		}
		return res.String(), true
	})

	return mux
}
