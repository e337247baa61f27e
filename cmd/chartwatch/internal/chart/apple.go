// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package chart

import (
	"context"
	"fmt"
	"net/http"

	"go.astrophena.name/chartwatch/internal/request"
)

// AppleAPI is the default base URL of the Apple Marketing Tools RSS API.
const AppleAPI = "https://rss.marketingtools.apple.com/api/v2"

// Apple fetches charts from the Apple Marketing Tools JSON API.
type Apple struct {
	// BaseURL overrides AppleAPI.
	BaseURL string
	// HTTPClient is used for requests. If nil, request.DefaultClient is used.
	HTTPClient *http.Client
}

type appleResponse struct {
	Feed *struct {
		Results *[]struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			ArtistName string `json:"artistName"`
		} `json:"results"`
	} `json:"feed"`
}

// Fetch implements [Source].
func (a *Apple) Fetch(ctx context.Context, region string, cat Category) ([]Entry, error) {
	base := AppleAPI
	if a.BaseURL != "" {
		base = a.BaseURL
	}
	url := fmt.Sprintf("%s/%s/music/most-played/%d/%s.json", base, region, WindowSize, cat)

	resp, err := request.Make[appleResponse](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        url,
		HTTPClient: a.HTTPClient,
	})
	if err != nil {
		return nil, &FetchError{Region: region, Category: cat, Err: err}
	}
	malformed := func(why string) error {
		return &FetchError{Region: region, Category: cat, Err: fmt.Errorf("%w: %s", ErrMalformed, why)}
	}
	if resp.Feed == nil {
		return nil, malformed("no feed")
	}
	if resp.Feed.Results == nil {
		return nil, malformed("no results")
	}

	results := *resp.Feed.Results
	entries := make([]Entry, 0, len(results))
	for i, r := range results {
		if r.ID == "" {
			return nil, malformed(fmt.Sprintf("result %d has no id", i+1))
		}
		entries = append(entries, Entry{
			ID:       r.ID,
			Name:     r.Name,
			Artist:   r.ArtistName,
			Rank:     i + 1,
			Category: cat,
		})
	}
	return entries, nil
}
