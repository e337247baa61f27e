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

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/digest"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/format"
	"go.astrophena.name/chartwatch/internal/cli"
	"go.astrophena.name/chartwatch/internal/logger"

	"github.com/jedib0t/go-pretty/v6/table"
)

// digest runs one digest tick. It reads the runtime mode from the store but
// never changes it.
func (w *watcher) digest(ctx context.Context) error {
	log := logger.Get(ctx)
	store := w.loadStore(ctx)
	mode := w.effectiveMode(store)

	regions, failed, err := w.fetchRegions(ctx, mode)
	if err != nil {
		return err
	}
	active := digest.Active(regions)
	rows := digest.Aggregate(active)
	log.Info("digest computed", "active", len(active), "failed", failed, "rows", len(rows))

	h := format.Header{Mode: mode, Ceiling: w.ceiling, Date: w.now()}

	if w.print {
		return w.printLeaderboard(cli.GetEnv(ctx).Stdout, h, rows)
	}

	for _, r := range active {
		w.notify(ctx, format.RegionSummary(h, r))
	}
	w.notify(ctx, format.Leaderboard(h, rows))
	return nil
}

func (w *watcher) printLeaderboard(out io.Writer, h format.Header, rows []digest.Row) error {
	if w.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	t := newTable(out)
	t.SetTitle(fmt.Sprintf("Global ranking (TARGET=%s, TOP %d) %s", h.Mode, h.Ceiling, h.Date.Format(format.DateLayout)))
	t.AppendHeader(table.Row{"#", "Type", "Name", "Countries", "Best", "Avg"})
	for i, r := range rows {
		t.AppendRow(table.Row{
			i + 1,
			r.Category.Title(),
			r.Name,
			fmt.Sprintf("%d (%s)", len(r.Regions), strings.ToUpper(strings.Join(r.Regions, ", "))),
			fmt.Sprintf("#%d (%s)", r.BestRank, strings.ToUpper(r.BestRegion)),
			fmt.Sprintf("#%.1f", r.AvgRank),
		})
	}
	if len(rows) == 0 {
		t.AppendFooter(table.Row{"", "", "No entries found"})
	}
	t.Render()
	return nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
