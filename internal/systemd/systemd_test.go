// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package systemd

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"go.astrophena.name/chartwatch/internal/testutil"
)

func listen(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	l, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return l
}

func receive(t *testing.T, l *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 512)
	l.SetReadDeadline(time.Now().Add(5 * time.Second))
	n, _, err := l.ReadFromUnix(buf)
	if err != nil {
		t.Fatal(err)
	}
	return string(buf[:n])
}

func failOnLog(t *testing.T) func(string, ...any) {
	return func(format string, args ...any) { t.Errorf("unexpected log: %s", fmt.Sprintf(format, args...)) }
}

func TestNotify(t *testing.T) {
	l := listen(t)
	testutil.AssertEqual(t, Enabled(), true)

	Notify(failOnLog(t), Ready, Status("3 regions\n2 events"))
	testutil.AssertEqual(t, receive(t, l), "READY=1\nSTATUS=3 regions 2 events")
}

func TestNotifyOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	testutil.AssertEqual(t, Enabled(), false)
	Notify(failOnLog(t), Ready)
}

func TestWatchdogLoop(t *testing.T) {
	l := listen(t)
	t.Setenv("WATCHDOG_USEC", "250000")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go WatchdogLoop(ctx, func(string, ...any) {})

	testutil.AssertEqual(t, receive(t, l), "WATCHDOG=1")
	cancel()
}

func TestWatchdogInterval(t *testing.T) {
	d, err := watchdogInterval("1000000")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, d, 500*time.Millisecond)

	for _, bad := range []string{"", "soon", "0", "-5"} {
		if _, err := watchdogInterval(bad); err == nil {
			t.Errorf("watchdogInterval(%q) must fail", bad)
		}
	}
}
