// Package gif fetches animated reply decorations from the Tenor search API.
// Fetching never fails outward: any exhaustion or transport error resolves to
// a fixed fallback asset that callers can detect by comparing against
// FallbackGIF.
package gif

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tonebot/internal/transport"
)

const (
	// FallbackGIF is returned whenever the search cannot produce a real result.
	FallbackGIF = "https://media.tenor.com/4zFMa2onE44AAAAC/funny-cat.gif"
	// FallbackMessage is prepended by callers whenever FallbackGIF is returned.
	FallbackMessage = "Couldn’t fetch a GIF due to network issues. Here’s a funny cat instead!"

	defaultBaseURL = "https://api.tenor.com/v2/search"
	// fallbackQuery is issued once when the primary query has zero results
	fallbackQuery = "funny"

	resultLimit   = 5
	contentFilter = "medium"
	// requestTimeout bounds each search attempt individually; backoff waits
	// between retries don't count against it
	requestTimeout = 5 * time.Second
)

// Fetcher searches Tenor for GIFs. The zero value is not usable; construct
// with NewFetcher.
type Fetcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
	pick    func(n int) int
}

// NewFetcher creates a Fetcher using the retrying transport. baseURL may be
// empty to use the public Tenor endpoint.
func NewFetcher(apiKey string, baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport.WithRetries(nil, requestTimeout),
		},
		pick: rand.IntN,
	}
}

// Fetch returns the URL of a GIF matching query, or FallbackGIF when the
// search is exhausted. It never returns an error.
func (f *Fetcher) Fetch(ctx context.Context, query string) string {
	query = normalizeQuery(query)

	log.Printf("Fetching GIF for query: %s", query)
	candidates, err := f.search(ctx, query)
	if err != nil {
		log.Printf("Tenor search for %q failed: %v", query, err)
		return FallbackGIF
	}
	if len(candidates) == 0 {
		log.Printf("No GIFs found for query %q, trying fallback query %q", query, fallbackQuery)
		candidates, err = f.search(ctx, fallbackQuery)
		if err != nil {
			log.Printf("Tenor fallback search failed: %v", err)
			return FallbackGIF
		}
	}
	if len(candidates) == 0 {
		log.Printf("No GIFs found even with fallback query")
		return FallbackGIF
	}
	return candidates[f.pick(len(candidates))]
}

// searchResponse mirrors the slice of the Tenor v2 payload we consume
type searchResponse struct {
	Results []struct {
		MediaFormats struct {
			GIF struct {
				URL string `json:"url"`
			} `json:"gif"`
		} `json:"media_formats"`
	} `json:"results"`
}

func (f *Fetcher) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("key", f.apiKey)
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(resultLimit))
	params.Set("contentfilter", contentFilter)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			log.Printf("Tenor API rejected the key; check TENOR_API_KEY")
		}
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	urls := make([]string, 0, len(payload.Results))
	for _, result := range payload.Results {
		if u := result.MediaFormats.GIF.URL; u != "" {
			urls = append(urls, u)
		}
		if len(urls) == resultLimit {
			break
		}
	}
	return urls, nil
}

// normalizeQuery lowercases, trims, and corrects one common misspelling
func normalizeQuery(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "peple" {
		query = "people"
	}
	return query
}
