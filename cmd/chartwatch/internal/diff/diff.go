// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package diff compares fresh chart snapshots with the tracking store and
// produces change events.
package diff

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
)

// Kind is the kind of an [Event].
type Kind int

const (
	// NewEntry is emitted for a key seen for the first time.
	NewEntry Kind = iota
	// ReEntry is emitted when an off-chart key shows up again.
	ReEntry
	// Improved is emitted when a key moved up.
	Improved
	// Declined is emitted when a key moved down.
	Declined
	// MilestoneReached is emitted the first time a key satisfies a threshold.
	MilestoneReached
)

var kindNames = [...]string{
	NewEntry:         "new_entry",
	ReEntry:          "re_entry",
	Improved:         "improved",
	Declined:         "declined",
	MilestoneReached: "milestone_reached",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is a single change observed during a scan.
type Event struct {
	Kind     Kind           `json:"kind"`
	Region   string         `json:"region"`
	Category chart.Category `json:"category"`
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Artist   string         `json:"artist"`
	Rank     int            `json:"rank"`
	// Ceiling is the rank ceiling in effect during the scan.
	Ceiling int `json:"ceiling"`
	// Delta is the number of positions moved, for Improved and Declined.
	Delta int `json:"delta,omitempty"`
	// Milestone is the threshold reached, for MilestoneReached.
	Milestone tracking.Milestone `json:"milestone,omitempty"`
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s/%s %q #%d", e.Kind, strings.ToUpper(e.Region), e.Category, e.Name, e.Rank)
	switch e.Kind {
	case Improved, Declined:
		s += fmt.Sprintf(" (%d)", e.Delta)
	case MilestoneReached:
		s += " " + e.Milestone.String()
	}
	return s
}

// Snapshot is the filtered chart of a successfully fetched region.
type Snapshot struct {
	Region  string
	Entries []chart.Entry
}

var categoryOrder = map[chart.Category]int{chart.Songs: 0, chart.Albums: 1}

func sortEntries(entries []chart.Entry) []chart.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b chart.Entry) int {
		return cmp.Or(
			cmp.Compare(categoryOrder[a.Category], categoryOrder[b.Category]),
			cmp.Compare(a.Rank, b.Rank),
		)
	})
	return sorted
}

// Apply applies snapshots to store in order and returns the resulting events.
//
// Snapshots must only contain regions that were fetched successfully. Keys of
// those regions that are absent from their snapshot are marked off chart.
// Keys of regions without a snapshot are left untouched.
func Apply(store *tracking.Store, snapshots []Snapshot, ceiling int, now time.Time) []Event {
	var (
		events  []Event
		touched = make(map[string]bool)
		scanned = make(map[string]bool)
	)

	for _, snap := range snapshots {
		scanned[snap.Region] = true
		for _, e := range sortEntries(snap.Entries) {
			key := tracking.Key(snap.Region, e.Category, e.ID)
			touched[key] = true
			events = append(events, applyEntry(store, snap.Region, key, e, ceiling, now)...)
		}
	}

	for key, it := range store.Items {
		if touched[key] {
			continue
		}
		if region, _, _, ok := tracking.ParseKey(key); ok && scanned[region] {
			it.OnChart = false
		}
	}

	return events
}

func applyEntry(store *tracking.Store, region, key string, e chart.Entry, ceiling int, now time.Time) []Event {
	base := Event{
		Region:   region,
		Category: e.Category,
		ID:       e.ID,
		Name:     e.Name,
		Artist:   e.Artist,
		Rank:     e.Rank,
		Ceiling:  ceiling,
	}
	with := func(k Kind, f func(*Event)) Event {
		ev := base
		ev.Kind = k
		if f != nil {
			f(&ev)
		}
		return ev
	}

	var events []Event

	it, ok := store.Items[key]
	if !ok {
		it = &tracking.Item{
			Rank:      e.Rank,
			FirstSeen: now,
			LastSeen:  now,
			OnChart:   true,
		}
		store.Items[key] = it
		events = append(events, with(NewEntry, nil))
		for _, m := range tracking.Milestones {
			if !m.Reached(e.Rank) {
				continue
			}
			it.SetAlerted(m)
			if ceiling > 1 {
				events = append(events, with(MilestoneReached, func(ev *Event) { ev.Milestone = m }))
			}
		}
		return events
	}

	if !it.OnChart {
		events = append(events, with(ReEntry, nil))
	}

	if ceiling > 1 {
		switch delta := it.Rank - e.Rank; {
		case delta > 0:
			events = append(events, with(Improved, func(ev *Event) { ev.Delta = delta }))
		case delta < 0:
			events = append(events, with(Declined, func(ev *Event) { ev.Delta = -delta }))
		}
	}

	for _, m := range tracking.Milestones {
		if m.Reached(e.Rank) && !it.Alerted(m) {
			it.SetAlerted(m)
			events = append(events, with(MilestoneReached, func(ev *Event) { ev.Milestone = m }))
		}
	}

	it.Rank = e.Rank
	it.OnChart = true
	it.LastSeen = now

	return events
}
