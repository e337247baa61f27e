// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/command"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/format"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
	"go.astrophena.name/chartwatch/internal/logger"
)

// poll runs one command-poll tick.
func (w *watcher) poll(ctx context.Context) error {
	log := logger.Get(ctx)
	if w.tg == nil {
		log.Debug("telegram not configured, skipping poll")
		return nil
	}

	lock, err := w.acquireLock("poll")
	if err != nil {
		return err
	}
	defer w.releaseLock(ctx, lock)

	store := w.loadStore(ctx)

	updates, err := w.tg.GetUpdates(ctx, store.Bot.Offset)
	if err != nil {
		log.Warn("poll failed, skipping", "error", err)
		return nil
	}
	if len(updates) == 0 {
		return nil
	}

	in := &command.Interpreter{
		Chat: w.chatID,
		Status: func(s *tracking.Store) string {
			return format.Status(w.settings(s))
		},
	}
	cmds := make([]command.Update, 0, len(updates))
	for _, u := range updates {
		cmds = append(cmds, command.Update{ID: u.ID, ChatID: u.ChatID, Text: u.Text})
	}

	before := store.Config.Target
	replies := in.Handle(store, cmds)
	if store.Config.Target != before {
		log.Info("mode changed", "from", before, "to", store.Config.Target)
	}
	for _, reply := range replies {
		w.notify(ctx, reply)
	}

	return w.saveStore(ctx, store)
}
