// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package filter

import (
	"encoding/json"
	"testing"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/internal/testutil"
)

func TestInScope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		artist string
		mode   Mode
		want   bool
	}{
		{"Jimin", PrimaryOnly, true},
		{"JIMIN", PrimaryOnly, true},
		{"BTS", PrimaryOnly, false},
		{"Jimin & BTS", PrimaryOnly, false},
		{"Jimin", GroupOnly, false},
		{"BTS", GroupOnly, true},
		{"Bangtan Boys", GroupOnly, true},
		{"방탄소년단", GroupOnly, true},
		{"Jimin & BTS", GroupOnly, true},
		{"Jimin", Combined, true},
		{"BTS", Combined, true},
		{"Taylor Swift", Combined, false},
		{"", Combined, false},
	}
	for _, tc := range cases {
		if got := DefaultKeywords.InScope(tc.artist, tc.mode); got != tc.want {
			t.Errorf("InScope(%q, %v) = %v, want %v", tc.artist, tc.mode, got, tc.want)
		}
	}
}

func TestParseCeiling(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		ceiling int
		ok      bool
	}{
		"":     {50, true},
		"10":   {10, true},
		" 1 ":  {1, true},
		"100":  {100, true},
		"250":  {100, true},
		"12.7": {12, true},
		"0":    {50, false},
		"-5":   {50, false},
		"ten":  {50, false},
		"NaN":  {50, false},
	}
	for in, want := range cases {
		ceiling, ok := ParseCeiling(in)
		if ceiling != want.ceiling || ok != want.ok {
			t.Errorf("ParseCeiling(%q) = (%d, %v), want (%d, %v)", in, ceiling, ok, want.ceiling, want.ok)
		}
	}
}

func TestWithinCeiling(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, WithinCeiling(50, 50), true)
	testutil.AssertEqual(t, WithinCeiling(51, 50), false)
	testutil.AssertEqual(t, WithinCeiling(1, 1), true)
	testutil.AssertEqual(t, WithinCeiling(2, 1), false)
	testutil.AssertEqual(t, WithinCeiling(100, 500), true)
	testutil.AssertEqual(t, WithinCeiling(0, 50), false)
}

func TestApply(t *testing.T) {
	t.Parallel()

	entries := []chart.Entry{
		{ID: "1", Name: "Who", Artist: "Jimin", Rank: 1, Category: chart.Songs},
		{ID: "2", Name: "Espresso", Artist: "Sabrina Carpenter", Rank: 2, Category: chart.Songs},
		{ID: "3", Name: "Dynamite", Artist: "BTS", Rank: 3, Category: chart.Songs},
		{ID: "4", Name: "Like Crazy", Artist: "Jimin", Rank: 4, Category: chart.Songs},
	}

	testutil.AssertEqual(t, DefaultKeywords.Apply(entries, Combined, 3), []chart.Entry{entries[0], entries[2]})
	testutil.AssertEqual(t, DefaultKeywords.Apply(entries, PrimaryOnly, 50), []chart.Entry{entries[0], entries[3]})
	testutil.AssertEqual(t, DefaultKeywords.Apply(entries, GroupOnly, 2), []chart.Entry(nil))
}

func TestModeText(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{
		"JIMIN":    PrimaryOnly,
		"primary":  PrimaryOnly,
		"bts":      GroupOnly,
		"group":    GroupOnly,
		"BOTH":     Combined,
		"combined": Combined,
		"all":      Combined,
	} {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		testutil.AssertEqual(t, got, want)
	}
	if _, err := ParseMode("everyone"); err == nil {
		t.Fatal("ParseMode must fail on unknown modes")
	}

	type wrapper struct {
		Target Mode `json:"target"`
	}
	b, err := json.Marshal(wrapper{Target: GroupOnly})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(b), `{"target":"BTS"}`)
	w := testutil.UnmarshalJSON[wrapper](t, []byte(`{"target":"JIMIN"}`))
	testutil.AssertEqual(t, w.Target, PrimaryOnly)
}
