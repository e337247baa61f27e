// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package format

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/diff"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// EventToStarlark converts an event into a starlark struct.
func EventToStarlark(ev diff.Event) starlark.Value {
	return starlarkstruct.FromStringDict(
		starlarkstruct.Default,
		starlark.StringDict{
			"kind":      starlark.String(ev.Kind.String()),
			"region":    starlark.String(strings.ToUpper(ev.Region)),
			"category":  starlark.String(string(ev.Category)),
			"id":        starlark.String(ev.ID),
			"name":      starlark.String(ev.Name),
			"artist":    starlark.String(ev.Artist),
			"rank":      starlark.MakeInt(ev.Rank),
			"ceiling":   starlark.MakeInt(ev.Ceiling),
			"delta":     starlark.MakeInt(ev.Delta),
			"milestone": starlark.MakeInt(int(ev.Milestone)),
			"default":   starlark.String(Event(ev)),
		},
	)
}

// Hook is a user-defined starlark function that renders events.
type Hook struct {
	Fn     *starlark.Function
	Logger *slog.Logger
}

var errHookResult = errors.New("format hook must return a string or None")

// maxHookSteps bounds the work of one hook call.
const maxHookSteps = 100_000

// Render renders ev with the hook, falling back to [Event] if there is no
// hook, it fails or it returns None or an empty string.
func (h *Hook) Render(ev diff.Event) string {
	if h == nil || h.Fn == nil {
		return Event(ev)
	}
	s, err := h.call(ev)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("format hook failed, using default", "event", ev.String(), "error", err)
		}
		return Event(ev)
	}
	if s == "" {
		return Event(ev)
	}
	return s
}

func (h *Hook) call(ev diff.Event) (string, error) {
	thread := &starlark.Thread{
		Name: "format",
		Print: func(_ *starlark.Thread, msg string) {
			if h.Logger != nil {
				h.Logger.Info(msg)
			}
		},
	}
	thread.SetMaxExecutionSteps(maxHookSteps)
	val, err := starlark.Call(thread, h.Fn, starlark.Tuple{EventToStarlark(ev)}, nil)
	if err != nil {
		return "", err
	}
	switch v := val.(type) {
	case starlark.NoneType:
		return "", nil
	case starlark.String:
		return string(v), nil
	}
	return "", fmt.Errorf("%w, got %s", errHookResult, val.Type())
}
