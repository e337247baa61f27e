// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package filter decides which chart entries are in scope.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
)

// Mode is an artist-matching policy.
type Mode int

const (
	// Combined accepts entries matching primary or group keywords.
	Combined Mode = iota
	// PrimaryOnly accepts entries matching primary keywords that don't match
	// group keywords.
	PrimaryOnly
	// GroupOnly accepts entries matching group keywords.
	GroupOnly
)

// String returns the command-surface name of the mode.
func (m Mode) String() string {
	switch m {
	case PrimaryOnly:
		return "JIMIN"
	case GroupOnly:
		return "BTS"
	case Combined:
		return "BOTH"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode parses a mode name. It accepts the command-surface names (JIMIN,
// BTS, BOTH) and the descriptive ones (primary, group, combined) in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JIMIN", "PRIMARY", "PRIMARY_ONLY":
		return PrimaryOnly, nil
	case "BTS", "GROUP", "GROUP_ONLY":
		return GroupOnly, nil
	case "BOTH", "ALL", "COMBINED":
		return Combined, nil
	}
	return Combined, fmt.Errorf("unknown mode %q", s)
}

// MarshalText implements [encoding.TextMarshaler].
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Mode) UnmarshalText(b []byte) error {
	mode, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Keywords are the two disjoint keyword sets matched against artist names.
type Keywords struct {
	Primary []string
	Group   []string
}

// DefaultKeywords are used unless overridden by configuration.
var DefaultKeywords = Keywords{
	Primary: []string{"jimin"},
	Group:   []string{"bts", "bangtan", "방탄", "방탄소년단"},
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// InScope reports whether artist matches mode.
func (k Keywords) InScope(artist string, mode Mode) bool {
	a := strings.ToLower(artist)
	primary, group := containsAny(a, k.Primary), containsAny(a, k.Group)
	switch mode {
	case PrimaryOnly:
		return primary && !group
	case GroupOnly:
		return group
	default:
		return primary || group
	}
}

// Ceiling bounds.
const (
	MinCeiling     = 1
	MaxCeiling     = chart.WindowSize
	DefaultCeiling = 50
)

// ClampCeiling clamps n into [MinCeiling, MaxCeiling]. Non-positive values
// yield DefaultCeiling.
func ClampCeiling(n int) int {
	switch {
	case n <= 0:
		return DefaultCeiling
	case n > MaxCeiling:
		return MaxCeiling
	}
	return n
}

// ParseCeiling parses a ceiling. ok is false when s is set but invalid, in
// which case DefaultCeiling is returned.
func ParseCeiling(s string) (ceiling int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCeiling, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || !(f >= 1) {
			return DefaultCeiling, false
		}
		n = int(min(f, MaxCeiling))
	}
	if n <= 0 {
		return DefaultCeiling, false
	}
	return ClampCeiling(n), true
}

// WithinCeiling reports whether rank is at or above ceiling.
func WithinCeiling(rank, ceiling int) bool { return rank >= 1 && rank <= ClampCeiling(ceiling) }

// Apply returns the entries within ceiling whose artist matches mode. Ranks
// are kept as in the raw chart.
func (k Keywords) Apply(entries []chart.Entry, mode Mode, ceiling int) []chart.Entry {
	var out []chart.Entry
	for _, e := range entries {
		if WithinCeiling(e.Rank, ceiling) && k.InScope(e.Artist, mode) {
			out = append(out, e)
		}
	}
	return out
}
