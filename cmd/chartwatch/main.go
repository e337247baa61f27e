// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/format"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/sender"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/telegram"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
	"go.astrophena.name/chartwatch/internal/cli"
	"go.astrophena.name/chartwatch/internal/filelock"
	"go.astrophena.name/chartwatch/internal/logger"
	"go.astrophena.name/chartwatch/internal/request"
)

const (
	stateFile = "storage.json"
	lockFile  = "chartwatch.lock"
)

var errAlreadyRunning = errors.New("already running")

func main() { cli.Main(new(watcher)) }

func (w *watcher) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&w.dry, "dry", false, "Enable dry-run mode: log events, but don't send them or save state.")
	fs.BoolVar(&w.json, "json", false, "Output in JSON format (honored by items and status).")
	fs.BoolVar(&w.print, "print", false, "Print the digest ranking as a table instead of sending it.")
}

func (w *watcher) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	if err := w.configure(ctx); err != nil {
		return err
	}

	w.init.Do(func() {
		w.doInit(ctx)
	})

	// Enable debug logging in dry-run mode.
	if w.dry {
		logger.Get(ctx).Level.Set(slog.LevelDebug)
	}

	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}
	if len(env.Args) > 1 {
		return fmt.Errorf("%w: %s takes no arguments", cli.ErrInvalidArgs, env.Args[0])
	}

	switch command := env.Args[0]; command {
	case "run":
		return w.scan(ctx)
	case "digest":
		return w.digest(ctx)
	case "poll":
		return w.poll(ctx)
	case "serve":
		return w.serve(ctx)
	case "items":
		return w.listItems(ctx, env.Stdout)
	case "status":
		return w.printStatus(ctx, env.Stdout)
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

type watcher struct {
	init sync.Once

	// configuration
	adminAddr  string
	ceiling    int
	chatID     string
	countries  string // as configured, for /status
	dry        bool
	json       bool
	mode       filter.Mode // from TARGET
	print      bool
	regions    []string
	sourceName string
	stateDir   string
	throttle   time.Duration
	tgToken    string
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time

	// from config.star
	keywords filter.Keywords
	hook     *format.Hook

	// initialized by doInit
	httpc  *http.Client
	source chart.Source
	send   sender.Sender
	tg     *telegram.Client

	lastScan atomic.Pointer[scanResult]
}

func (w *watcher) doInit(ctx context.Context) {
	if w.now == nil {
		w.now = time.Now
	}
	if w.httpc == nil {
		w.httpc = request.DefaultClient
	}

	if w.source == nil {
		switch w.sourceName {
		case sourceITunes:
			w.source = &chart.ITunes{HTTPClient: w.httpc}
		default:
			w.source = &chart.Apple{HTTPClient: w.httpc}
		}
	}

	if w.tgToken != "" {
		w.tg = telegram.New(telegram.Config{
			ChatID:     w.chatID,
			Token:      w.tgToken,
			HTTPClient: w.httpc,
		})
	}

	if w.send == nil {
		w.send = w.newSender(ctx)
	}
}

func (w *watcher) newSender(ctx context.Context) sender.Sender {
	log := logger.Get(ctx)
	switch {
	case w.dry:
		return sender.Func(func(_ context.Context, msg sender.Message) error {
			log.Info("dry run, not sending", "text", msg.Text)
			return nil
		})
	case w.tg == nil || w.chatID == "":
		return sender.Func(func(_ context.Context, msg sender.Message) error {
			log.Debug("telegram not configured, not sending", "text", msg.Text)
			return nil
		})
	}
	return w.tg
}

// notify sends text. Failures are logged, not returned.
func (w *watcher) notify(ctx context.Context, text string) {
	if err := w.send.Send(ctx, sender.Message{Text: text, DisableLinkPreview: true}); err != nil {
		logger.Get(ctx).Warn("send failed, dropping remaining parts", "error", err)
	}
}

func (w *watcher) statePath() string { return filepath.Join(w.stateDir, stateFile) }
func (w *watcher) lockPath() string  { return filepath.Join(w.stateDir, lockFile) }

// acquireLock takes the run lock for command.
func (w *watcher) acquireLock(command string) (filelock.Lock, error) {
	lock, err := filelock.Acquire(w.lockPath(), fmt.Sprintf("pid=%d cmd=%s\n", os.Getpid(), command))
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		if holder := filelock.Holder(w.lockPath()); holder != "" {
			return nil, fmt.Errorf("%w (%s)", errAlreadyRunning, holder)
		}
		return nil, errAlreadyRunning
	}
	return lock, err
}

func (w *watcher) releaseLock(ctx context.Context, lock filelock.Lock) {
	if err := lock.Release(); err != nil {
		logger.Get(ctx).Warn("failed to release run lock", "error", err)
	}
}

// loadStore reads the tracking store.
func (w *watcher) loadStore(ctx context.Context) *tracking.Store {
	return tracking.Load(ctx, w.statePath())
}

// saveStore writes the tracking store, unless in dry-run mode.
func (w *watcher) saveStore(ctx context.Context, store *tracking.Store) error {
	if w.dry {
		logger.Get(ctx).Debug("dry run, not saving state")
		return nil
	}
	if err := store.Save(w.statePath()); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// effectiveMode returns the runtime mode from store, or the configured one.
func (w *watcher) effectiveMode(store *tracking.Store) filter.Mode {
	if m, ok := store.Config.Mode(); ok {
		return m
	}
	return w.mode
}

func (w *watcher) settings(store *tracking.Store) format.Settings {
	return format.Settings{
		Mode:      w.effectiveMode(store),
		Countries: w.countries,
		Ceiling:   w.ceiling,
		Throttle:  w.throttle,
		Source:    w.sourceName,
	}
}
