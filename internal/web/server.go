// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.astrophena.name/chartwatch/internal/logger"
	"go.astrophena.name/chartwatch/internal/systemd"
)

// Server is used to configure the HTTP server started by
// [Server.ListenAndServe].
//
// All fields of Server can't be modified after [Server.ListenAndServe]
// is called.
type Server struct {
	// Addr is a network address to listen on (in the form of "host:port").
	Addr string
	// Mux is a http.ServeMux to serve.
	Mux *http.ServeMux
	// NotifySystemd specifies whether to notify systemd about readiness and
	// keep its watchdog fed.
	NotifySystemd bool

	// used in tests
	ready func(addr string)
}

var (
	errNoAddr = errors.New("Addr is empty")
	errNilMux = errors.New("Mux is nil")
)

// ListenAndServe starts the HTTP server and blocks until ctx is canceled.
// /health is registered on the mux automatically.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Addr == "" {
		return errNoAddr
	}
	if s.Mux == nil {
		return errNilMux
	}
	log := logger.Get(ctx)

	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	defer l.Close()
	log.Info("listening", "addr", l.Addr().String())

	Health(s.Mux)

	httpSrv := &http.Server{
		ErrorLog:    slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		Handler:     s.Mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.ready != nil {
		s.ready(l.Addr().String())
	}
	logf := logger.Logf(func(format string, args ...any) { log.Warn(fmt.Sprintf(format, args...)) })
	if s.NotifySystemd {
		systemd.Notify(logf, systemd.Ready)
		go systemd.WatchdogLoop(ctx, logf)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("gracefully shutting down")
		if s.NotifySystemd {
			systemd.Notify(logf, systemd.Stopping)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return httpSrv.Shutdown(shutdownCtx)
	}
}
