// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package tracking

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/internal/logger"
	"go.astrophena.name/chartwatch/internal/testutil"
)

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logger.New(&buf)
	return logger.Put(t.Context(), l), &buf
}

func TestKey(t *testing.T) {
	t.Parallel()

	key := Key("jp", chart.Songs, "id_with_underscores")
	testutil.AssertEqual(t, key, "jp_songs_id_with_underscores")

	region, cat, id, ok := ParseKey(key)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, region, "jp")
	testutil.AssertEqual(t, cat, chart.Songs)
	testutil.AssertEqual(t, id, "id_with_underscores")

	if _, _, _, ok := ParseKey("garbage"); ok {
		t.Fatal("ParseKey must reject malformed keys")
	}
}

func TestLoadLegacy(t *testing.T) {
	t.Parallel()

	ctx, _ := testContext(t)
	s := Load(ctx, "testdata/legacy.json")

	testutil.AssertEqual(t, s.Keys(), []string{"jp_songs_1755000001", "kr_albums_1740000000"})
	testutil.AssertEqual(t, s.Bot.Offset, int64(922337))
	testutil.AssertEqual(t, s.OnChart(), 1)

	_, ok := s.Config.Mode()
	testutil.AssertEqual(t, ok, false)

	it := s.Items["jp_songs_1755000001"]
	testutil.AssertEqual(t, *it, Item{
		Rank:         7,
		FirstSeen:    time.Date(2024, 7, 19, 10, 0, 3, 512000000, time.UTC),
		Top50Alerted: true,
		Top10Alerted: true,
		OnChart:      true,
		LastSeen:     time.Date(2024, 7, 20, 10, 0, 2, 118000000, time.UTC),
	})
}

func TestLoadMissingOrCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	ctx, logs := testContext(t)
	s := Load(ctx, filepath.Join(dir, "missing.json"))
	testutil.AssertEqual(t, s, New())
	if strings.Contains(logs.String(), "unreadable") {
		t.Errorf("missing state must not be reported as unreadable: %s", logs)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte(`{"items": [`), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx, logs = testContext(t)
	s = Load(ctx, corrupt)
	testutil.AssertEqual(t, s, New())
	if !strings.Contains(logs.String(), "state unreadable, starting empty") {
		t.Errorf("corrupt state must be logged, got: %s", logs)
	}
}

func TestSaveOverCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storage.json")
	const garbage = `{"items": [`
	if err := os.WriteFile(path, []byte(garbage), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New()
	s.Items[Key("kr", chart.Songs, "7")] = &Item{Rank: 7, OnChart: true}
	s.Bot.Offset = 3
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	ctx, _ := testContext(t)
	testutil.AssertEqual(t, Load(ctx, path), s)
	kept, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(kept), garbage)

	// Later saves go over the now valid file.
	s.Bot.Offset = 4
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, Load(ctx, path).Bot.Offset, int64(4))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "storage.json")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s := New()
	s.Items[Key("jp", chart.Albums, "42")] = &Item{Rank: 3, FirstSeen: now, LastSeen: now, OnChart: true, Top50Alerted: true, Top10Alerted: true}
	s.Bot.Offset = 10
	s.Config.SetMode(filter.GroupOnly)
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	ctx, _ := testContext(t)
	got := Load(ctx, path)
	testutil.AssertEqual(t, got, s)

	mode, ok := got.Config.Mode()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, mode, filter.GroupOnly)
}

func TestMilestones(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, Top50.Reached(50), true)
	testutil.AssertEqual(t, Top50.Reached(51), false)
	testutil.AssertEqual(t, Top10.Reached(10), true)
	testutil.AssertEqual(t, Top10.Reached(11), false)
	testutil.AssertEqual(t, Top10.String(), "TOP 10")

	var it Item
	it.SetAlerted(Top10)
	testutil.AssertEqual(t, it.Alerted(Top10), true)
	testutil.AssertEqual(t, it.Alerted(Top50), false)
}
