// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package command interprets chat commands that control chartwatch at runtime.
package command

import (
	"strings"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/tracking"
)

// Action is what a command asks for.
type Action int

const (
	// SetMode changes the filter mode.
	SetMode Action = iota + 1
	// Status reports the effective configuration.
	Status
	// Help lists the commands.
	Help
)

// Command is a parsed chat command.
type Command struct {
	Action Action
	Mode   filter.Mode // for SetMode
}

// Parse parses a chat message. Only the first word is considered; a
// "@botname" suffix is ignored. ok is false for anything that isn't a known
// command.
func Parse(text string) (cmd Command, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/jimin":
		return Command{Action: SetMode, Mode: filter.PrimaryOnly}, true
	case "/bts":
		return Command{Action: SetMode, Mode: filter.GroupOnly}, true
	case "/both", "/all":
		return Command{Action: SetMode, Mode: filter.Combined}, true
	case "/status":
		return Command{Action: Status}, true
	case "/help", "/start":
		return Command{Action: Help}, true
	}
	return Command{}, false
}

// HelpText is the reply to /help.
const HelpText = `🤖 Commands:
/jimin  -> track Jimin solo only
/bts    -> track BTS only
/both   -> track Jimin + BTS
/status -> show current settings`

// Confirmation returns the reply sent after switching to m.
func Confirmation(m filter.Mode) string {
	switch m {
	case filter.PrimaryOnly:
		return "✅ Mode set: JIMIN only (exclude BTS)."
	case filter.GroupOnly:
		return "✅ Mode set: BTS only."
	default:
		return "✅ Mode set: BOTH (Jimin + BTS)."
	}
}

// Update is an inbound chat message.
type Update struct {
	ID     int64
	ChatID string
	Text   string
}

// Interpreter applies commands to a tracking store.
type Interpreter struct {
	// Chat, if set, is the only chat commands are accepted from.
	Chat string
	// Status renders the reply to /status for the store as modified so far.
	Status func(*tracking.Store) string
}

// Handle processes updates in order and returns the replies to send. The
// store cursor is advanced past every update, including ignored ones.
func (in *Interpreter) Handle(store *tracking.Store, updates []Update) []string {
	var replies []string
	for _, u := range updates {
		if u.ID > store.Bot.Offset {
			store.Bot.Offset = u.ID
		}
		if in.Chat != "" && u.ChatID != in.Chat {
			continue
		}
		cmd, ok := Parse(u.Text)
		if !ok {
			continue
		}
		switch cmd.Action {
		case SetMode:
			store.Config.SetMode(cmd.Mode)
			replies = append(replies, Confirmation(cmd.Mode))
		case Status:
			if in.Status != nil {
				replies = append(replies, in.Status(store))
			}
		case Help:
			replies = append(replies, HelpText)
		}
	}
	return replies
}
