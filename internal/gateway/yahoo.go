// Package gateway implements the client for the Yahoo realtime search
// transition API, which serves the time-bucketed post-count series.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/burst-tracker/internal/config"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/logger"
	"github.com/jonesrussell/north-cloud/burst-tracker/internal/models"
)

const (
	crumbPagePath  = "/realtime/search"
	transitionPath = "/realtime/api/v1/transition"

	// userAgent avoids bot blocking on the crumb page.
	userAgent = "Mozilla/5.0"
)

// crumbPattern matches the crumb token embedded in the search page's
// inline script payloads.
var crumbPattern = regexp.MustCompile(`"crumb"\s*:\s*"([^"]+)"`)

// ErrCrumbNotFound is returned when the search page carries no crumb token.
var ErrCrumbNotFound = errors.New("crumb token not found in search page")

// Client fetches post-count series. The crumb token scraped from the
// search page is cached and reused for a configured number of fetches
// before being refreshed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	interval   time.Duration
	span       time.Duration
	location   *time.Location
	logger     logger.Logger

	mu         sync.Mutex
	crumb      string
	crumbUses  int
	crumbReuse int
}

func NewClient(cfg config.GatewayConfig, analysisCfg config.AnalysisConfig, log logger.Logger) (*Client, error) {
	location, err := analysisCfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		interval:   analysisCfg.Interval(),
		span:       analysisCfg.Span(),
		location:   location,
		logger:     log,
		crumbReuse: cfg.CrumbReuse,
	}, nil
}

// transitionResponse mirrors the relevant part of the API payload.
type transitionResponse struct {
	TweetTransition struct {
		Entry []struct {
			From  int64 `json:"from"`
			To    int64 `json:"to"`
			Count int   `json:"count"`
		} `json:"entry"`
	} `json:"tweetTransition"`
}

// FetchCounts retrieves the post-count series for query. Bucket timestamps
// are converted into the configured timezone. Any failure (auth, network,
// decode) is returned as an error; callers treat it as "no data".
func (c *Client) FetchCounts(ctx context.Context, query string) ([]models.SeriesPoint, error) {
	crumb, err := c.crumbToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("crumb token: %w", err)
	}

	params := url.Values{}
	params.Set("crumb", crumb)
	params.Set("p", query)
	params.Set("interval", strconv.Itoa(int(c.interval.Seconds())))
	params.Set("span", strconv.Itoa(int(c.span.Seconds())))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+transitionPath+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch counts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload transitionResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	points := make([]models.SeriesPoint, 0, len(payload.TweetTransition.Entry))
	for _, entry := range payload.TweetTransition.Entry {
		points = append(points, models.SeriesPoint{
			Start: time.Unix(entry.From, 0).In(c.location),
			End:   time.Unix(entry.To, 0).In(c.location),
			Count: entry.Count,
		})
	}

	c.logger.Debug("Fetched post counts",
		logger.String("query", query),
		logger.Int("points", len(points)),
	)

	return points, nil
}

// crumbToken returns the cached crumb, refreshing it from the search page
// once the reuse budget is spent.
func (c *Client) crumbToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" && c.crumbUses < c.crumbReuse {
		c.crumbUses++
		return c.crumb, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+crumbPagePath+"?p=x.com", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse search page: %w", err)
	}

	crumb := ""
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := crumbPattern.FindStringSubmatch(s.Text()); m != nil {
			crumb = m[1]
			return false
		}
		return true
	})
	if crumb == "" {
		return "", ErrCrumbNotFound
	}

	c.crumb = crumb
	c.crumbUses = 0

	c.logger.Debug("Refreshed crumb token")
	return crumb, nil
}
