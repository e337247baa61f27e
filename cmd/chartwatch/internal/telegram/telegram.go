// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram implements message delivery and command polling over the
// Telegram Bot API.
package telegram

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"

	"go.astrophena.name/chartwatch/cmd/chartwatch/internal/sender"
	"go.astrophena.name/chartwatch/internal/request"
)

const (
	// API is the default Bot API endpoint.
	API = "https://api.telegram.org"
	// MaxMessageLen is the budget of a single message part, in UTF-16 code
	// units, below the Bot API limit of 4096.
	MaxMessageLen = 3800
)

// Config configures a Telegram client.
type Config struct {
	ChatID     string
	Token      string
	BaseURL    string // defaults to API
	HTTPClient *http.Client
}

// Client talks to the Bot API on behalf of one bot and one chat.
type Client struct {
	chatID   string
	token    string
	baseURL  string
	httpc    *http.Client
	scrubber *strings.Replacer
}

// New returns a Telegram client. The token is scrubbed from all returned
// errors.
func New(cfg Config) *Client {
	c := &Client{
		chatID:  cfg.ChatID,
		token:   cfg.Token,
		baseURL: cmp.Or(cfg.BaseURL, API),
		httpc:   cfg.HTTPClient,
	}
	if c.token != "" {
		c.scrubber = strings.NewReplacer(c.token, "[EXPUNGED]")
	}
	return c
}

func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

type message struct {
	ChatID             string `json:"chat_id"`
	Text               string `json:"text"`
	LinkPreviewOptions *struct {
		IsDisabled bool `json:"is_disabled"`
	} `json:"link_preview_options,omitempty"`
}

// Send sends msg, split into parts of at most MaxMessageLen at line
// boundaries. If a part fails, the remaining parts are not sent.
func (c *Client) Send(ctx context.Context, msg sender.Message) error {
	parts := splitMessage(msg.Text, MaxMessageLen)
	for i, part := range parts {
		tgmsg := &message{ChatID: c.chatID, Text: part}
		if msg.DisableLinkPreview {
			tgmsg.LinkPreviewOptions = &struct {
				IsDisabled bool `json:"is_disabled"`
			}{IsDisabled: true}
		}
		if _, err := request.Make[request.IgnoreResponse](ctx, request.Params{
			Method:     http.MethodPost,
			URL:        c.methodURL("sendMessage"),
			Body:       tgmsg,
			HTTPClient: c.httpc,
			Scrubber:   c.scrubber,
		}); err != nil {
			return fmt.Errorf("sending part %d of %d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

// Update is an inbound message.
type Update struct {
	ID     int64
	ChatID string
	Text   string
}

type updatesResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      []struct {
		UpdateID      int64     `json:"update_id"`
		Message       *tgUpdate `json:"message"`
		EditedMessage *tgUpdate `json:"edited_message"`
	} `json:"result"`
}

type tgUpdate struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
}

var errNotOK = errors.New("telegram: request not ok")

// GetUpdates returns updates after the one with id offset. An offset of zero
// returns all pending updates.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	q := url.Values{}
	q.Set("timeout", "0")
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset+1, 10))
	} else {
		q.Set("offset", "0")
	}

	resp, err := request.Make[updatesResponse](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        c.methodURL("getUpdates") + "?" + q.Encode(),
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", errNotOK, resp.Description)
	}

	updates := make([]Update, 0, len(resp.Result))
	for _, r := range resp.Result {
		u := Update{ID: r.UpdateID}
		msg := cmp.Or(r.Message, r.EditedMessage)
		if msg != nil {
			u.ChatID = strconv.FormatInt(msg.Chat.ID, 10)
			u.Text = strings.TrimSpace(msg.Text)
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// textLen returns the length of s in UTF-16 code units, the unit Telegram
// counts message length in.
func textLen(s string) int {
	var n int
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// cut splits s after at most limit UTF-16 code units.
func cut(s string, limit int) (head, tail string) {
	var n int
	for i, r := range s {
		l := max(utf16.RuneLen(r), 1)
		if n+l > limit {
			return s[:i], s[i:]
		}
		n += l
	}
	return s, ""
}

func splitMessage(text string, limit int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if textLen(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	flush := func() {
		if s := strings.TrimRight(buf.String(), " \t\r\n"); strings.TrimSpace(s) != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
		bufLen = 0
	}

	for line := range strings.SplitSeq(text, "\n") {
		for textLen(line) > limit {
			flush()
			var head string
			head, line = cut(line, limit)
			chunks = append(chunks, head)
		}
		n := textLen(line) + 1
		if bufLen+n > limit {
			flush()
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		bufLen += n
	}
	flush()

	return chunks
}
