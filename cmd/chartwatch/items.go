// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/format"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
	"go.astrophena.name/chartwatch/internal/filelock"

	"github.com/jedib0t/go-pretty/v6/table"
)

func (w *watcher) listItems(ctx context.Context, out io.Writer) error {
	store := w.loadStore(ctx)

	if w.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(store)
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Region", "Type", "ID", "Rank", "On chart", "Top 50", "Top 10", "Last seen"})
	for _, key := range store.Keys() {
		it := store.Items[key]
		region, cat, id, ok := tracking.ParseKey(key)
		if !ok {
			region, id = "?", key
		}
		t.AppendRow(table.Row{
			strings.ToUpper(region),
			cat.Title(),
			id,
			it.Rank,
			yesNo(it.OnChart),
			yesNo(it.Top50Alerted),
			yesNo(it.Top10Alerted),
			it.LastSeen.Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d tracked", len(store.Items)), "", fmt.Sprintf("%d", store.OnChart())})
	t.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func (w *watcher) printStatus(ctx context.Context, out io.Writer) error {
	store := w.loadStore(ctx)
	s := w.settings(store)

	if w.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Target     string `json:"target"`
			Countries  string `json:"countries"`
			Regions    int    `json:"regions"`
			TopLimit   int    `json:"top_limit"`
			ThrottleMS int64  `json:"throttle_ms"`
			Source     string `json:"source"`
			Offset     int64  `json:"offset"`
			Tracked    int    `json:"tracked"`
			Running    string `json:"running,omitempty"`
		}{
			Target:     s.Mode.String(),
			Countries:  s.Countries,
			Regions:    len(w.regions),
			TopLimit:   s.Ceiling,
			ThrottleMS: s.Throttle.Milliseconds(),
			Source:     s.Source,
			Offset:     store.Bot.Offset,
			Tracked:    len(store.Items),
			Running:    filelock.Holder(w.lockPath()),
		})
	}

	fmt.Fprintln(out, format.Status(s))
	if holder := filelock.Holder(w.lockPath()); holder != "" {
		fmt.Fprintf(out, "- RUNNING: %s\n", holder)
	}
	return nil
}
