// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package tracking implements the persisted tracking store: every chart entry
// ever observed, keyed by region, category and source id, plus the bot update
// cursor and the runtime filter mode.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/internal/atomicio"
	"go.astrophena.name/chartwatch/internal/logger"

	"crawshaw.dev/jsonfile"
)

// Milestone is a rank threshold that is alerted at most once per item.
type Milestone int

const (
	Top50 Milestone = 50
	Top10 Milestone = 10
)

// Milestones lists thresholds in ascending strictness.
var Milestones = []Milestone{Top50, Top10}

// Reached reports whether rank satisfies m.
func (m Milestone) Reached(rank int) bool { return rank >= 1 && rank <= int(m) }

func (m Milestone) String() string { return fmt.Sprintf("TOP %d", int(m)) }

// Item is the tracking record of a single key.
type Item struct {
	Rank         int       `json:"rank"`
	FirstSeen    time.Time `json:"firstSeen"`
	Top50Alerted bool      `json:"top50Alerted"`
	Top10Alerted bool      `json:"top10Alerted"`
	OnChart      bool      `json:"onChart"`
	LastSeen     time.Time `json:"lastSeen"`
}

// Alerted reports whether the alert for m has already fired.
func (it *Item) Alerted(m Milestone) bool {
	switch m {
	case Top50:
		return it.Top50Alerted
	case Top10:
		return it.Top10Alerted
	}
	return false
}

// SetAlerted marks m as alerted. Flags are never cleared.
func (it *Item) SetAlerted(m Milestone) {
	switch m {
	case Top50:
		it.Top50Alerted = true
	case Top10:
		it.Top10Alerted = true
	}
}

// Bot holds the command surface cursor.
type Bot struct {
	// Offset is the id of the last processed update.
	Offset int64 `json:"offset"`
}

// Config holds settings changed at runtime.
type Config struct {
	// Target is the filter mode chosen with a chat command, empty if none was.
	Target string `json:"target"`
}

// Mode returns the runtime filter mode, if one is set and valid.
func (c Config) Mode() (filter.Mode, bool) {
	if c.Target == "" {
		return filter.Combined, false
	}
	m, err := filter.ParseMode(c.Target)
	if err != nil {
		return filter.Combined, false
	}
	return m, true
}

// SetMode stores m as the runtime filter mode.
func (c *Config) SetMode(m filter.Mode) { c.Target = m.String() }

// Store is the durable state of chartwatch.
type Store struct {
	Items  map[string]*Item `json:"items"`
	Bot    Bot              `json:"bot"`
	Config Config           `json:"config"`
}

// New returns an empty store.
func New() *Store { return &Store{Items: make(map[string]*Item)} }

// Key returns the tracking key of a chart entry in region.
func Key(region string, cat chart.Category, id string) string {
	return region + "_" + string(cat) + "_" + id
}

// ParseKey splits a key produced by [Key].
func ParseKey(key string) (region string, cat chart.Category, id string, ok bool) {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], chart.Category(parts[1]), parts[2], true
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string { return slices.Sorted(maps.Keys(s.Items)) }

// OnChart returns the number of items currently on a chart.
func (s *Store) OnChart() int {
	var n int
	for _, it := range s.Items {
		if it.OnChart {
			n++
		}
	}
	return n
}

// Load reads the store from path. A missing or unreadable store is logged and
// replaced by an empty one.
func Load(ctx context.Context, path string) *Store {
	f, err := jsonfile.Load[Store](path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Get(ctx).Debug("no state yet, starting empty", "path", path)
		return New()
	case err != nil:
		logger.Get(ctx).Warn("state unreadable, starting empty", "path", path, "error", err)
		return New()
	}

	s := New()
	f.Read(func(data *Store) {
		for k, it := range data.Items {
			if it != nil {
				s.Items[k] = it
			}
		}
		s.Bot = data.Bot
		s.Config = data.Config
	})
	return s
}

// Save atomically replaces the store at path. An unreadable file found there
// is kept as path+".corrupt".
func (s *Store) Save(path string) error {
	f, err := jsonfile.Load[Store](path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f, err = jsonfile.New[Store](path)
	case err != nil:
		if err := setAside(path); err != nil {
			return err
		}
		f, err = jsonfile.New[Store](path)
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return f.Write(func(data *Store) error {
		*data = *s
		return nil
	})
}

func setAside(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := atomicio.WriteFile(path+".corrupt", b, 0o600); err != nil {
		return err
	}
	return os.Remove(path)
}
