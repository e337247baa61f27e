// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package digest rolls up filtered chart snapshots of many regions into a
// cross-region leaderboard.
package digest

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
)

var parenRe = regexp.MustCompile(`\(.*?\)`)

// Normalize returns the grouping key of a title: lower-cased, without
// parenthesized parts, with runs of non-alphanumeric characters replaced by a
// single space.
func Normalize(name string) string {
	s := parenRe.ReplaceAllString(strings.ToLower(name), " ")
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
	if s == "" {
		return strings.TrimSpace(strings.ToLower(name))
	}
	return s
}

// Row is one leaderboard line.
type Row struct {
	Category chart.Category `json:"category"`
	// Name is the title as first seen.
	Name string `json:"name"`
	// Key is the normalized title.
	Key string `json:"key"`
	// Regions lists distinct regions in scan order.
	Regions    []string `json:"regions"`
	BestRank   int      `json:"best_rank"`
	BestRegion string   `json:"best_region"`
	// AvgRank averages every occurrence, so two versions of a title in
	// one region both count.
	AvgRank float64 `json:"avg_rank"`

	sum, count int
}

var categoryOrder = map[chart.Category]int{chart.Songs: 0, chart.Albums: 1}

// Aggregate groups entries of all regions by category and normalized title.
// Rows are sorted by region count (descending), best rank, average rank, then
// category and normalized title, so identical input yields identical output.
func Aggregate(regions []chart.Region) []Row {
	type groupKey struct {
		cat chart.Category
		key string
	}
	var (
		rows  []*Row
		index = make(map[groupKey]*Row)
	)

	for _, region := range regions {
		for _, e := range region.Entries {
			gk := groupKey{e.Category, Normalize(e.Name)}
			r, ok := index[gk]
			if !ok {
				r = &Row{
					Category:   e.Category,
					Name:       e.Name,
					Key:        gk.key,
					BestRank:   e.Rank,
					BestRegion: region.Code,
				}
				index[gk] = r
				rows = append(rows, r)
			}
			if !slices.Contains(r.Regions, region.Code) {
				r.Regions = append(r.Regions, region.Code)
			}
			if e.Rank < r.BestRank {
				r.BestRank = e.Rank
				r.BestRegion = region.Code
			}
			r.sum += e.Rank
			r.count++
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		r.AvgRank = float64(r.sum) / float64(r.count)
		out = append(out, *r)
	}

	slices.SortStableFunc(out, func(a, b Row) int {
		return cmp.Or(
			cmp.Compare(len(b.Regions), len(a.Regions)),
			cmp.Compare(a.BestRank, b.BestRank),
			cmp.Compare(a.AvgRank, b.AvgRank),
			cmp.Compare(categoryOrder[a.Category], categoryOrder[b.Category]),
			strings.Compare(a.Key, b.Key),
		)
	})
	return out
}

// Active returns regions that have at least one entry.
func Active(regions []chart.Region) []chart.Region {
	var out []chart.Region
	for _, r := range regions {
		if len(r.Entries) > 0 {
			out = append(out, r)
		}
	}
	return out
}
