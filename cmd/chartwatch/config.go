// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/chart"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/filter"
	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/format"
	"go.astrophena.name/chartwatch/internal/cli"
	"go.astrophena.name/chartwatch/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	sourceApple  = "apple"
	sourceITunes = "itunes"

	configFile = "config.star"
)

// configure loads configuration from environment variables and config.star.
// Invalid values are logged and replaced by defaults.
func (w *watcher) configure(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	log := logger.Get(ctx)

	w.adminAddr = cmp.Or(w.adminAddr, env.Getenv("ADMIN_ADDR"), "localhost:3000")
	w.chatID = cmp.Or(w.chatID, env.Getenv("TELEGRAM_CHAT"))
	w.tgToken = cmp.Or(w.tgToken, env.Getenv("TELEGRAM_TOKEN"))

	ceiling, ok := filter.ParseCeiling(env.Getenv("TOP_LIMIT"))
	if !ok {
		log.Warn("invalid TOP_LIMIT, using default", "value", env.Getenv("TOP_LIMIT"), "default", ceiling)
	}
	w.ceiling = ceiling

	w.mode = filter.Combined
	if target := env.Getenv("TARGET"); target != "" {
		mode, err := filter.ParseMode(target)
		if err != nil {
			log.Warn("invalid TARGET, using default", "value", target, "default", filter.Combined.String())
		} else {
			w.mode = mode
		}
	}

	w.throttle = 0
	if raw := env.Getenv("THROTTLE_MS"); raw != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || ms < 0 {
			log.Warn("invalid THROTTLE_MS, using default", "value", raw, "default", 0)
		} else {
			w.throttle = time.Duration(ms) * time.Millisecond
		}
	}

	w.sourceName = strings.ToLower(cmp.Or(w.sourceName, env.Getenv("CHART_SOURCE"), sourceApple))
	if w.sourceName != sourceApple && w.sourceName != sourceITunes {
		log.Warn("invalid CHART_SOURCE, using default", "value", w.sourceName, "default", sourceApple)
		w.sourceName = sourceApple
	}

	w.stateDir = cmp.Or(w.stateDir, env.Getenv("STATE_DIRECTORY"))
	if w.stateDir == "" {
		xdgStateHome := env.Getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		w.stateDir = filepath.Join(xdgStateHome, "chartwatch")
	}
	if err := os.MkdirAll(w.stateDir, 0o700); err != nil {
		return err
	}

	w.keywords = filter.DefaultKeywords
	w.hook = nil
	w.countries = cmp.Or(strings.TrimSpace(env.Getenv("COUNTRIES")), "ALL")
	w.regions = chart.ParseRegions(w.countries)

	cfg, err := w.loadConfig(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		log.Warn("invalid config.star, using built-ins", "error", err)
	default:
		w.applyConfig(ctx, cfg, env.Getenv("COUNTRIES") == "")
	}

	return nil
}

// starConfig is the result of evaluating config.star.
type starConfig struct {
	primary   []string
	group     []string
	countries []string
	format    *starlark.Function
}

func (w *watcher) loadConfig(ctx context.Context) (*starConfig, error) {
	src, err := os.ReadFile(filepath.Join(w.stateDir, configFile))
	if err != nil {
		return nil, err
	}
	return parseConfig(ctx, src)
}

func parseConfig(ctx context.Context, src []byte) (*starConfig, error) {
	log := logger.Get(ctx)
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Name:  configFile,
			Print: func(_ *starlark.Thread, msg string) { log.Info(msg) },
		},
		configFile,
		src,
		nil,
	)
	if err != nil {
		return nil, err
	}

	cfg := new(starConfig)
	for name, dst := range map[string]*[]string{
		"primary_keywords": &cfg.primary,
		"group_keywords":   &cfg.group,
		"countries":        &cfg.countries,
	} {
		list, err := stringList(globals, name)
		if err != nil {
			return nil, err
		}
		*dst = list
	}

	if v, ok := globals["format"]; ok {
		fn, ok := v.(*starlark.Function)
		if !ok {
			return nil, fmt.Errorf("format must be a function, got %s", v.Type())
		}
		if fn.NumParams() != 1 {
			return nil, fmt.Errorf("format must take exactly one argument, takes %d", fn.NumParams())
		}
		cfg.format = fn
	}

	return cfg, nil
}

// stringList returns the list of strings named name, or nil if it's not
// defined.
func stringList(globals starlark.StringDict, name string) ([]string, error) {
	v, ok := globals[name]
	if !ok {
		return nil, nil
	}
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings, got %s", name, v.Type())
	}
	it := iter.Iterate()
	defer it.Done()

	var (
		out  []string
		elem starlark.Value
	)
	for it.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("%s must be a list of strings, got %s element", name, elem.Type())
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (w *watcher) applyConfig(ctx context.Context, cfg *starConfig, useCountries bool) {
	if len(cfg.primary) > 0 {
		w.keywords.Primary = cfg.primary
	}
	if len(cfg.group) > 0 {
		w.keywords.Group = cfg.group
	}
	if useCountries && len(cfg.countries) > 0 {
		w.countries = strings.Join(cfg.countries, ",")
		w.regions = chart.ParseRegions(w.countries)
	}
	if cfg.format != nil {
		w.hook = &format.Hook{Fn: cfg.format, Logger: logger.Get(ctx).Logger}
	}
}
