// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package chart

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/http"
	"regexp"

	"go.astrophena.name/chartwatch/internal/request"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// ITunesAPI is the default base URL of the legacy iTunes RSS generator.
const ITunesAPI = "https://itunes.apple.com"

// ITunes fetches charts from the legacy iTunes Atom feeds.
type ITunes struct {
	// BaseURL overrides ITunesAPI.
	BaseURL string
	// HTTPClient is used for requests. If nil, request.DefaultClient is used.
	HTTPClient *http.Client
}

var itunesIDRe = regexp.MustCompile(`(?:/id|[?&]i=)(\d+)`)

func (i *ITunes) feedName(cat Category) string {
	if cat == Albums {
		return "topalbums"
	}
	return "topsongs"
}

// Fetch implements [Source].
func (i *ITunes) Fetch(ctx context.Context, region string, cat Category) ([]Entry, error) {
	base := cmp.Or(i.BaseURL, ITunesAPI)
	url := fmt.Sprintf("%s/%s/rss/%s/limit=%d/xml", base, region, i.feedName(cat), WindowSize)

	b, err := request.Make[request.Bytes](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        url,
		HTTPClient: i.HTTPClient,
	})
	if err != nil {
		return nil, &FetchError{Region: region, Category: cat, Err: err}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(b))
	if err != nil {
		return nil, &FetchError{Region: region, Category: cat, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	malformed := func(why string) error {
		return &FetchError{Region: region, Category: cat, Err: fmt.Errorf("%w: %s", ErrMalformed, why)}
	}
	if len(feed.Items) == 0 {
		return nil, malformed("no entries")
	}

	entries := make([]Entry, 0, len(feed.Items))
	for n, item := range feed.Items {
		if item.GUID == "" {
			return nil, malformed(fmt.Sprintf("entry %d has no id", n+1))
		}
		e := Entry{
			ID:       item.GUID,
			Name:     cmp.Or(extValue(item.Extensions, "name"), item.Title),
			Artist:   extValue(item.Extensions, "artist"),
			Rank:     n + 1,
			Category: cat,
		}
		if m := itunesIDRe.FindStringSubmatch(item.GUID); m != nil {
			e.ID = m[1]
		}
		if e.Artist == "" && item.Author != nil {
			e.Artist = item.Author.Name
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// extValue returns the value of the first im:<name> element.
func extValue(exts ext.Extensions, name string) string {
	im, ok := exts["im"]
	if !ok {
		return ""
	}
	if vals := im[name]; len(vals) > 0 {
		return vals[0].Value
	}
	return ""
}
