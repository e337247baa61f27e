// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package diff

import (
	"testing"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
	"go.astrophena.name/chartwatch/internal/testutil"
)

var (
	day1 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 = day1.Add(time.Hour)
	day3 = day2.Add(time.Hour)
	day4 = day3.Add(time.Hour)
)

func lost(rank int) chart.Entry {
	return chart.Entry{ID: "100", Name: "Lost", Artist: "Jimin", Rank: rank, Category: chart.Songs}
}

func kinds(events []Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.String())
	}
	return out
}

func TestScenario(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	const key = "jp_songs_100"

	// First observation.
	events := Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(12)}}}, 50, day1)
	testutil.AssertEqual(t, events, []Event{
		{Kind: NewEntry, Region: "jp", Category: chart.Songs, ID: "100", Name: "Lost", Artist: "Jimin", Rank: 12, Ceiling: 50},
		{Kind: MilestoneReached, Region: "jp", Category: chart.Songs, ID: "100", Name: "Lost", Artist: "Jimin", Rank: 12, Ceiling: 50, Milestone: tracking.Top50},
	})
	testutil.AssertEqual(t, *store.Items[key], tracking.Item{
		Rank: 12, FirstSeen: day1, LastSeen: day1, OnChart: true, Top50Alerted: true,
	})

	// Climbs into the top 10.
	events = Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(7)}}}, 50, day2)
	testutil.AssertEqual(t, kinds(events), []string{
		`improved JP/songs "Lost" #7 (5)`,
		`milestone_reached JP/songs "Lost" #7 TOP 10`,
	})

	// Drops out of the chart.
	events = Apply(store, []Snapshot{{Region: "jp"}}, 50, day3)
	testutil.AssertEqual(t, len(events), 0)
	testutil.AssertEqual(t, store.Items[key].OnChart, false)
	testutil.AssertEqual(t, store.Items[key].Rank, 7)

	// Comes back lower.
	events = Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(20)}}}, 50, day4)
	testutil.AssertEqual(t, kinds(events), []string{
		`re_entry JP/songs "Lost" #20`,
		`declined JP/songs "Lost" #20 (13)`,
	})
	testutil.AssertEqual(t, *store.Items[key], tracking.Item{
		Rank: 20, FirstSeen: day1, LastSeen: day4, OnChart: true, Top50Alerted: true, Top10Alerted: true,
	})
}

func TestIdempotentRepeat(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	snaps := []Snapshot{
		{Region: "jp", Entries: []chart.Entry{lost(3), {ID: "7", Name: "MUSE", Artist: "Jimin", Rank: 40, Category: chart.Albums}}},
		{Region: "kr", Entries: []chart.Entry{lost(60)}},
	}
	first := Apply(store, snaps, 100, day1)
	testutil.AssertEqual(t, len(first) > 0, true)

	for range 3 {
		if events := Apply(store, snaps, 100, day2); len(events) != 0 {
			t.Fatalf("repeated identical snapshot produced events: %v", kinds(events))
		}
	}
}

func TestFirstSeenFlags(t *testing.T) {
	t.Parallel()

	for _, rank := range []int{1, 10, 11, 50, 51, 100} {
		store := tracking.New()
		events := Apply(store, []Snapshot{{Region: "us", Entries: []chart.Entry{lost(rank)}}}, 100, day1)

		var newEntries int
		for _, ev := range events {
			if ev.Kind == NewEntry {
				newEntries++
			}
		}
		testutil.AssertEqual(t, newEntries, 1)
		testutil.AssertEqual(t, events[0].Kind, NewEntry)

		it := store.Items["us_songs_100"]
		testutil.AssertEqual(t, it.Top50Alerted, rank <= 50)
		testutil.AssertEqual(t, it.Top10Alerted, rank <= 10)
		testutil.AssertEqual(t, len(events), 1+btoi(rank <= 50)+btoi(rank <= 10))
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestOffChartRoundTrip(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(5)}}}, 50, day1)
	Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{{ID: "other", Name: "Dynamite", Artist: "BTS", Rank: 1, Category: chart.Songs}}}}, 50, day2)
	testutil.AssertEqual(t, store.Items["jp_songs_100"].OnChart, false)

	events := Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(8)}}}, 50, day3)
	testutil.AssertEqual(t, kinds(events), []string{
		`re_entry JP/songs "Lost" #8`,
		`declined JP/songs "Lost" #8 (3)`,
	})
}

func TestMilestonesAreMonotonic(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(60)}}}, 100, day1)

	var milestones []tracking.Milestone
	for _, rank := range []int{40, 70, 9, 55, 3, 45, 8} {
		for _, ev := range Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(rank)}}}, 100, day2) {
			if ev.Kind == MilestoneReached {
				milestones = append(milestones, ev.Milestone)
			}
		}
		it := store.Items["jp_songs_100"]
		if !it.Top50Alerted && rank <= 50 {
			t.Fatalf("top50 flag unset after rank %d", rank)
		}
	}
	testutil.AssertEqual(t, milestones, []tracking.Milestone{tracking.Top50, tracking.Top10})
	testutil.AssertEqual(t, store.Items["jp_songs_100"].Top10Alerted, true)
}

func TestFailedRegionIsUntouched(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	Apply(store, []Snapshot{
		{Region: "jp", Entries: []chart.Entry{lost(5)}},
		{Region: "kr", Entries: []chart.Entry{lost(9)}},
	}, 50, day1)

	before := *store.Items["kr_songs_100"]
	// kr failed to fetch, so it has no snapshot.
	events := Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(5)}}}, 50, day2)
	testutil.AssertEqual(t, len(events), 0)
	testutil.AssertEqual(t, *store.Items["kr_songs_100"], before)
	testutil.AssertEqual(t, store.Items["jp_songs_100"].LastSeen, day2)
}

func TestOrdering(t *testing.T) {
	t.Parallel()

	album := chart.Entry{ID: "a1", Name: "FACE", Artist: "Jimin", Rank: 2, Category: chart.Albums}
	song1 := chart.Entry{ID: "s1", Name: "Who", Artist: "Jimin", Rank: 70, Category: chart.Songs}
	song2 := chart.Entry{ID: "s2", Name: "Smeraldo Garden", Artist: "Jimin", Rank: 55, Category: chart.Songs}

	store := tracking.New()
	events := Apply(store, []Snapshot{
		{Region: "us", Entries: []chart.Entry{album, song1, song2}},
		{Region: "jp", Entries: []chart.Entry{song1}},
	}, 100, day1)
	testutil.AssertEqual(t, kinds(events), []string{
		`new_entry US/songs "Smeraldo Garden" #55`,
		`new_entry US/songs "Who" #70`,
		`new_entry US/albums "FACE" #2`,
		`milestone_reached US/albums "FACE" #2 TOP 50`,
		`milestone_reached US/albums "FACE" #2 TOP 10`,
		`new_entry JP/songs "Who" #70`,
	})
}

func TestCeilingOne(t *testing.T) {
	t.Parallel()

	store := tracking.New()
	events := Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(1)}}}, 1, day1)
	testutil.AssertEqual(t, kinds(events), []string{`new_entry JP/songs "Lost" #1`})
	it := store.Items["jp_songs_100"]
	testutil.AssertEqual(t, it.Top50Alerted && it.Top10Alerted, true)

	// Off chart and back: no movement is reported at ceiling 1.
	Apply(store, []Snapshot{{Region: "jp"}}, 1, day2)
	events = Apply(store, []Snapshot{{Region: "jp", Entries: []chart.Entry{lost(1)}}}, 1, day3)
	testutil.AssertEqual(t, kinds(events), []string{`re_entry JP/songs "Lost" #1`})
}
