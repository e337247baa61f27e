// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package systemd implements the service side of the sd_notify protocol:
// readiness, status lines, shutdown and watchdog keep-alives.
//
// See https://www.freedesktop.org/software/systemd/man/sd_notify.html.
package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.astrophena.name/chartwatch/internal/logger"
)

// State is one sd_notify assignment.
type State string

const (
	// Ready reports that startup is finished.
	Ready State = "READY=1"
	// Stopping reports that the service began shutting down.
	Stopping State = "STOPPING=1"
	// Watchdog updates the watchdog timestamp.
	Watchdog State = "WATCHDOG=1"
)

// Status returns a state that sets the status line shown by systemctl status.
// Newlines in msg are replaced by spaces.
func Status(msg string) State {
	return State("STATUS=" + strings.ReplaceAll(msg, "\n", " "))
}

// Enabled reports whether the process runs under a service manager that
// listens for notifications.
func Enabled() bool { return os.Getenv("NOTIFY_SOCKET") != "" }

// Notify sends states to the service manager in one datagram. It does
// nothing outside of systemd. Errors are logged to logf.
func Notify(logf logger.Logf, states ...State) {
	addr := &net.UnixAddr{Net: "unixgram", Name: os.Getenv("NOTIFY_SOCKET")}
	if addr.Name == "" || len(states) == 0 {
		return
	}

	lines := make([]string, len(states))
	for i, s := range states {
		lines[i] = string(s)
	}

	conn, err := net.DialUnix(addr.Net, nil, addr)
	if err != nil {
		logf("systemd: notify failed: %v", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(strings.Join(lines, "\n"))); err != nil {
		logf("systemd: notify failed: %v", err)
	}
}

// WatchdogLoop sends keep-alives at half of WATCHDOG_USEC until ctx is
// canceled. It returns at once when the watchdog is not enabled.
func WatchdogLoop(ctx context.Context, logf logger.Logf) {
	if os.Getenv("WATCHDOG_USEC") == "" {
		return
	}

	interval, err := watchdogInterval(os.Getenv("WATCHDOG_USEC"))
	if err != nil {
		logf("%v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Notify(logf, Watchdog)
		case <-ctx.Done():
			return
		}
	}
}

func watchdogInterval(usec string) (time.Duration, error) {
	n, err := strconv.Atoi(usec)
	if err != nil {
		return 0, fmt.Errorf("systemd: parsing WATCHDOG_USEC: %v", err)
	}
	if n <= 0 {
		return 0, errors.New("systemd: WATCHDOG_USEC must be positive")
	}
	return time.Duration(n) * time.Microsecond / 2, nil
}
