// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Chartwatch watches Apple Music "most played" charts of many storefronts and
reports chart moves of Jimin and BTS releases to a Telegram chat.

# Usage

	$ chartwatch [flags...] <command>

Commands:

  - run: scan every region once, send change notifications and save state.
  - digest: send a per-region summary and a global ranking. With -print, the
    ranking is printed as a table instead.
  - poll: read new chat commands and apply them.
  - serve: run scans hourly, the digest daily at 23:59 and command polls
    every minute, and serve an admin endpoint.
  - items: print tracked items. With -json, print the raw state.
  - status: print the effective configuration.

A scan notifies about new entries, re-entries, rank moves and the first time
an item reaches the top 50 and the top 10 of its chart.

# Chat commands

  - /jimin: track Jimin solo releases only.
  - /bts: track BTS releases only.
  - /both or /all: track both.
  - /status: show current settings.
  - /help or /start: list commands.

# Environment Variables

  - TOP_LIMIT: rank ceiling, 1 to 100. Defaults to 50.
  - COUNTRIES: comma-separated storefront codes or ALL (the default).
  - TARGET: JIMIN, BTS or BOTH (the default). A mode set with a chat command
    takes priority.
  - THROTTLE_MS: delay between regions in milliseconds. Defaults to 0.
  - TELEGRAM_TOKEN: Telegram bot token. Without it nothing is sent.
  - TELEGRAM_CHAT: Telegram chat ID that receives notifications and is the
    only chat commands are accepted from.
  - CHART_SOURCE: apple (the default) for the Apple Marketing Tools API or
    itunes for the legacy iTunes RSS feeds.
  - STATE_DIRECTORY: directory where state is kept. Defaults to
    $XDG_STATE_HOME/chartwatch.
  - ADMIN_ADDR: address of the admin endpoint of serve. Defaults to
    localhost:3000.

Invalid values are logged and replaced by defaults.

# Configuration

An optional config.star file in the state directory can override the
built-in keywords and regions and customize notifications:

	primary_keywords = ["jimin", "지민"]
	group_keywords = ["bts", "bangtan", "방탄"]
	countries = ["kr", "jp", "us"]

	def format(ev):
	    if ev.kind == "improved":
	        return "%s is up %d in %s (#%d)" % (ev.name, ev.delta, ev.region, ev.rank)
	    return None  # use the default message

Event fields are kind, region, category, id, name, artist, rank, ceiling,
delta, milestone and default (the default message).

# State

State is kept in storage.json in the state directory. Every run that changes
it holds chartwatch.lock, so a second concurrent run fails.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/chartwatch/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
