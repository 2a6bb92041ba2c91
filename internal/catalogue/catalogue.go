// Package catalogue is the cached client for the external metadata
// catalogue: title/TV search scored against candidates, and full
// show-structure fetch with process-lifetime memoisation.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/reconciled/reconciled/internal/textmatch"
)

// Candidate is a resolved search hit.
type Candidate struct {
	Title     string
	Year      int
	Catalogue int // catalogue_id
}

type cacheKey struct {
	title string
	year  int
}

// Client talks to the external metadata catalogue over HTTP, caching
// search results until ClearSearchCache is called and show structures for
// the lifetime of the process.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger

	group singleflight.Group

	mu          sync.Mutex
	searchCache map[cacheKey]*Candidate

	structMu   sync.Mutex
	structures map[int]*ShowStructure
}

// NewClient builds a catalogue Client.
func NewClient(baseURL, apiKey string, timeout time.Duration, ratePerSec float64, log zerolog.Logger) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 4
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		http:        &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		log:         log.With().Str("component", "catalogue").Logger(),
		searchCache: make(map[cacheKey]*Candidate),
		structures:  make(map[int]*ShowStructure),
	}
}

// ClearSearchCache drops the search cache. The scan loop does not call
// it, so in the daemon search results stay cached for the process
// lifetime. Show structures are never cleared here — they live for the
// process lifetime per the memoisation design.
func (c *Client) ClearSearchCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchCache = make(map[cacheKey]*Candidate)
}

type searchResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	FirstAir    string  `json:"first_air_date"`
	Popularity  float64 `json:"popularity"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// SearchFilm searches the movie endpoint, retrying once without year on an
// empty result, scoring candidates, and caching the winner.
func (c *Client) SearchFilm(ctx context.Context, title string, year int) (Candidate, bool) {
	return c.search(ctx, "/search/movie", title, year)
}

// SearchShow searches the TV endpoint with the same protocol as SearchFilm.
func (c *Client) SearchShow(ctx context.Context, title string, year int) (Candidate, bool) {
	return c.search(ctx, "/search/tv", title, year)
}

type idResponse struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	FirstAir    string `json:"first_air_date"`
}

// LookupFilmByID fetches a known catalogue id directly from the movie
// endpoint, bypassing search. Used for manual resolution, where the caller
// already knows the catalogue id and only needs title/year.
func (c *Client) LookupFilmByID(ctx context.Context, id int) (Candidate, bool) {
	return c.lookupByID(ctx, fmt.Sprintf("/movie/%d", id))
}

// LookupShowByID is LookupFilmByID's TV-endpoint counterpart.
func (c *Client) LookupShowByID(ctx context.Context, id int) (Candidate, bool) {
	return c.lookupByID(ctx, fmt.Sprintf("/tv/%d", id))
}

func (c *Client) lookupByID(ctx context.Context, path string) (Candidate, bool) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)

	var resp idResponse
	if err := c.getRetrying(ctx, path, q, &resp); err != nil {
		return Candidate{}, false
	}

	name := resp.Title
	if name == "" {
		name = resp.Name
	}
	year := yearFromDate(resp.ReleaseDate)
	if year == 0 {
		year = yearFromDate(resp.FirstAir)
	}
	return Candidate{Title: name, Year: year, Catalogue: resp.ID}, true
}

func (c *Client) search(ctx context.Context, path, title string, year int) (Candidate, bool) {
	key := cacheKey{title: strings.ToLower(title), year: year}

	c.mu.Lock()
	if cached, ok := c.searchCache[key]; ok {
		c.mu.Unlock()
		if cached == nil {
			return Candidate{}, false
		}
		return *cached, true
	}
	c.mu.Unlock()

	sfKey := fmt.Sprintf("%s|%s|%d", path, key.title, key.year)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		results, err := c.fetchSearch(ctx, path, title, year)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 && year != 0 {
			results, err = c.fetchSearch(ctx, path, title, 0)
			if err != nil {
				return nil, err
			}
		}
		return results, nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Str("title", title).Msg("catalogue search failed")
		c.searchCache[key] = nil
		return Candidate{}, false
	}

	results, _ := v.([]searchResult)
	if len(results) == 0 {
		c.searchCache[key] = nil
		return Candidate{}, false
	}

	best := bestCandidate(results, title, year)
	c.searchCache[key] = &best
	return best, true
}

func (c *Client) fetchSearch(ctx context.Context, path, title string, year int) ([]searchResult, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}

	var resp searchResponse
	if err := c.getRetrying(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// getRetrying performs a rate-limited GET with exponential backoff on
// 429/503 and transport errors, up to 3 retries.
func (c *Client) getRetrying(ctx context.Context, path string, query url.Values, out any) error {
	b := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("catalogue transport error: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(out)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			return retry.RetryableError(fmt.Errorf("catalogue status %d", resp.StatusCode))
		default:
			return fmt.Errorf("catalogue status %d", resp.StatusCode)
		}
	})
}

func bestCandidate(results []searchResult, queryTitle string, queryYear int) Candidate {
	bestScore := -1.0
	var best Candidate
	for rank, r := range results {
		name := r.Title
		if name == "" {
			name = r.Name
		}
		candidateYear := yearFromDate(r.ReleaseDate)
		if candidateYear == 0 {
			candidateYear = yearFromDate(r.FirstAir)
		}

		score := candidateScore(queryTitle, queryYear, name, candidateYear, r.Popularity, rank)
		if score > bestScore {
			bestScore = score
			best = Candidate{Title: name, Year: candidateYear, Catalogue: r.ID}
		}
	}
	return best
}

// candidateScore implements 0.3*year_match + jaccard(words) +
// recency_bonus + popularity_bonus + rank_bonus.
func candidateScore(queryTitle string, queryYear int, candTitle string, candYear int, popularity float64, rank int) float64 {
	yearMatch := 0.0
	if queryYear != 0 && queryYear == candYear {
		yearMatch = 1.0
	}

	jac := textmatch.Jaccard(textmatch.Words(queryTitle), textmatch.Words(candTitle))

	recencyBonus := 0.0
	if candYear != 0 {
		age := time.Now().Year() - candYear
		if age < 0 {
			age = 0
		}
		recencyBonus = 0.05 / float64(1+age)
	}

	popularityBonus := popularity / 1000.0
	if popularityBonus > 0.2 {
		popularityBonus = 0.2
	}

	rankBonus := 0.1 - 0.01*float64(rank)
	if rankBonus < 0 {
		rankBonus = 0
	}

	return 0.3*yearMatch + jac + recencyBonus + popularityBonus + rankBonus
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
