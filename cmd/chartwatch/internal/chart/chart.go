// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package chart fetches ranked "most played" charts for a storefront region.
package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// WindowSize is the number of positions requested from a chart source.
const WindowSize = 100

// Category is a chart category.
type Category string

const (
	// Songs is the songs chart.
	Songs Category = "songs"
	// Albums is the albums chart.
	Albums Category = "albums"
)

// Categories lists chart categories in scan order.
var Categories = []Category{Songs, Albums}

// Label returns an upper-case label used in notifications, e.g. "SONG".
func (c Category) Label() string {
	switch c {
	case Songs:
		return "SONG"
	case Albums:
		return "ALBUM"
	default:
		return strings.ToUpper(string(c))
	}
}

// Title returns a title-case label used in the digest, e.g. "Song".
func (c Category) Title() string {
	switch c {
	case Songs:
		return "Song"
	case Albums:
		return "Album"
	default:
		return string(c)
	}
}

// Entry is a single chart position.
type Entry struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artist   string   `json:"artist"`
	Rank     int      `json:"rank"` // 1-based position in the raw chart
	Category Category `json:"category"`
}

// Source returns the ranked chart of a category for a region.
type Source interface {
	Fetch(ctx context.Context, region string, cat Category) ([]Entry, error)
}

// ErrMalformed is returned when a chart response can't be understood.
var ErrMalformed = errors.New("malformed chart response")

// FetchError describes a failed chart fetch.
type FetchError struct {
	Region   string
	Category Category
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s %s chart: %v", strings.ToUpper(e.Region), e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Region is a fetched region with both categories, songs first.
type Region struct {
	Code    string  `json:"code"`
	Entries []Entry `json:"entries"`
}

// FetchRegion fetches all categories for region. A failure of any category
// fails the whole region.
func FetchRegion(ctx context.Context, src Source, region string) (Region, error) {
	r := Region{Code: region}
	for _, cat := range Categories {
		entries, err := src.Fetch(ctx, region, cat)
		if err != nil {
			return Region{}, err
		}
		r.Entries = append(r.Entries, entries...)
	}
	return r, nil
}

// Regions is the list of storefronts scanned when COUNTRIES is ALL.
var Regions = []string{
	"ae", "ag", "ai", "al", "am", "ao", "ar", "at", "au", "az",
	"ba", "bb", "be", "bf", "bg", "bh", "bj", "bm", "bn", "bo", "br", "bs", "bt", "bw", "by", "bz",
	"ca", "cd", "cg", "ch", "ci", "cl", "cm", "cn", "co", "cr", "cv", "cy", "cz",
	"de", "dk", "dm", "do", "dz",
	"ec", "ee", "eg", "es", "fi", "fj", "fr",
	"ga", "gb", "gd", "ge", "gh", "gm", "gr", "gt", "gw",
	"hk", "hn", "hr", "hu",
	"id", "ie", "il", "in", "is", "it", "jm", "jo", "jp",
	"ke", "kg", "kh", "kn", "kr", "kw", "ky", "kz",
	"la", "lb", "lc", "lk", "lr", "lt", "lu", "lv",
	"ma", "md", "me", "mg", "mk", "ml", "mn", "mo", "mr", "ms", "mt", "mu", "mv", "mw", "mx", "my", "mz",
	"na", "ne", "ng", "ni", "nl", "no", "np", "nz",
	"om",
	"pa", "pe", "pg", "ph", "pk", "pl", "pt", "py",
	"qa",
	"ro", "rs", "ru", "rw",
	"sa", "sb", "sc", "se", "sg", "si", "sk", "sl", "sn", "sr", "st", "sv", "sz",
	"tc", "td", "th", "tj", "tm", "tn", "tr", "tt", "tw", "tz",
	"ua", "ug", "us", "uy", "uz",
	"vc", "ve", "vg", "vn",
	"ye", "za", "zm", "zw",
}

// ParseRegions parses a comma-separated region list. An empty string or
// "ALL" (in any case) selects [Regions]. Duplicates are dropped, keeping the
// first occurrence.
func ParseRegions(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "ALL") {
		return Regions
	}
	var regions []string
	seen := make(map[string]bool)
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" && !seen[part] {
			seen[part] = true
			regions = append(regions, part)
		}
	}
	if len(regions) == 0 {
		return Regions
	}
	return regions
}
