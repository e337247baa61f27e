// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package format renders chartwatch notifications.
package format

import (
	"fmt"
	"strings"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/diff"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/digest"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
)

// DateLayout is the layout of dates in digest headers.
const DateLayout = "2006-01-02"

// Event renders a single change event.
func Event(ev diff.Event) string {
	region := strings.ToUpper(ev.Region)
	label := ev.Category.Label()
	switch ev.Kind {
	case diff.NewEntry:
		return fmt.Sprintf("🚨 NEW %s (TOP %d) (%s): %s (#%d)", label, ev.Ceiling, region, ev.Name, ev.Rank)
	case diff.ReEntry:
		return fmt.Sprintf("🔄 RE-ENTRY %s (TOP %d) (%s): %s (#%d)", label, ev.Ceiling, region, ev.Name, ev.Rank)
	case diff.Improved:
		return fmt.Sprintf("📈 %s %s up %d (#%d)", region, ev.Name, ev.Delta, ev.Rank)
	case diff.Declined:
		return fmt.Sprintf("📉 %s %s down %d (#%d)", region, ev.Name, ev.Delta, ev.Rank)
	case diff.MilestoneReached:
		icon := "🔥"
		if ev.Milestone == tracking.Top10 {
			icon = "🚀"
		}
		return fmt.Sprintf("%s FIRST TIME %s %s (%s): %s (#%d)", icon, ev.Milestone, label, region, ev.Name, ev.Rank)
	}
	return ev.String()
}

// Header identifies the filter a digest was computed with.
type Header struct {
	Mode    filter.Mode
	Ceiling int
	Date    time.Time
}

// RegionSummary renders the per-region part of a digest.
func RegionSummary(h Header, r chart.Region) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 iTunes Summary (TARGET=%s, TOP %d) (%s) — %s\n", h.Mode, h.Ceiling, strings.ToUpper(r.Code), h.Date.Format(DateLayout))

	section := func(title string, cat chart.Category) {
		fmt.Fprintf(&sb, "\n%s\n", title)
		var n int
		for _, e := range r.Entries {
			if e.Category != cat {
				continue
			}
			fmt.Fprintf(&sb, "• %s (#%d)\n", e.Name, e.Rank)
			n++
		}
		if n == 0 {
			sb.WriteString("• (none)\n")
		}
	}
	section("🎵 Songs:", chart.Songs)
	section("💿 Albums:", chart.Albums)

	return strings.TrimRight(sb.String(), "\n")
}

// Leaderboard renders the cross-region ranking.
func Leaderboard(h Header, rows []digest.Row) string {
	date := h.Date.Format(DateLayout)
	if len(rows) == 0 {
		return fmt.Sprintf("🌍 iTunes Global Ranking — %s\nNo entries found for TARGET=%s in TOP %d.", date, h.Mode, h.Ceiling)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌍 iTunes Global Ranking (TARGET=%s, TOP %d) — %s\n", h.Mode, h.Ceiling, date)
	sb.WriteString("(active countries only)\n\n")
	for _, r := range rows {
		fmt.Fprintf(&sb, "• %s: %s\n", r.Category.Title(), r.Name)
		fmt.Fprintf(&sb, "  - Countries: %d (%s)\n", len(r.Regions), upperJoin(r.Regions))
		fmt.Fprintf(&sb, "  - Best rank: #%d (%s)\n", r.BestRank, strings.ToUpper(r.BestRegion))
		fmt.Fprintf(&sb, "  - Avg rank: #%.1f\n", r.AvgRank)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func upperJoin(regions []string) string {
	up := make([]string, len(regions))
	for i, r := range regions {
		up[i] = strings.ToUpper(r)
	}
	return strings.Join(up, ", ")
}

// Settings is the effective configuration reported by /status.
type Settings struct {
	Mode      filter.Mode
	Countries string
	Ceiling   int
	Throttle  time.Duration
	Source    string
}

// Status renders s.
func Status(s Settings) string {
	lines := []string{
		"📌 Status",
		"- TARGET: " + s.Mode.String(),
		"- COUNTRIES: " + s.Countries,
		fmt.Sprintf("- TOP_LIMIT: %d", s.Ceiling),
		fmt.Sprintf("- THROTTLE_MS: %d", s.Throttle.Milliseconds()),
	}
	if s.Source != "" {
		lines = append(lines, "- SOURCE: "+s.Source)
	}
	return strings.Join(lines, "\n")
}
