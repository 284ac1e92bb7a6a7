// Package http fetches drink catalogs from festival JSON feeds over
// HTTP. It speaks the native layout (a JSON array of drinks) directly
// and anything else through a JSONPath mapping, handles gzip and zstd
// responses, and rate-limits itself so a refresh loop cannot hammer a
// volunteer-run web server.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/catalog"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/logging"
	"github.com/richardthe3rd/cambridge-beer-festival-app-sub003/internal/source"
)

const userAgent = "cbf-catalog/1.0"

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 32 << 20 // decompressed
	defaultRate         = 1.0      // requests per second
)

// Config configures a Source. URL may contain the placeholder
// "{festival}", which expands to the escaped festival ID, so one source
// serves every festival on a site.
type Config struct {
	URL               string
	Mapping           *Mapping
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxBodyBytes      int64
	Client            *http.Client
	Logger            *slog.Logger
}

type Source struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	mapping *compiledMapping
	maxBody int64
	logger  *slog.Logger
}

var _ source.Source = (*Source)(nil)

func NewSource(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http source: empty url")
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("http source: invalid url %q: %w", cfg.URL, err)
	}

	s := &Source{
		url:     cfg.URL,
		client:  cfg.Client,
		maxBody: cfg.MaxBodyBytes,
		logger:  logging.Default(cfg.Logger).With("component", "source-http"),
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	r := cfg.RequestsPerSecond
	if r <= 0 {
		r = defaultRate
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(r), burst)

	if cfg.Mapping != nil {
		cm, err := compileMapping(*cfg.Mapping)
		if err != nil {
			return nil, fmt.Errorf("http source: %w", err)
		}
		s.mapping = cm
	}
	return s, nil
}

// FetchDrinks downloads and decodes the festival's feed. It blocks on
// the rate limiter first, so callers that refresh in a tight loop get
// spaced out instead of rejected.
func (s *Source) FetchDrinks(ctx context.Context, festivalID string) ([]catalog.Drink, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	feedURL := strings.ReplaceAll(s.url, "{festival}", url.PathEscape(festivalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "zstd, gzip")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", feedURL, resp.Status)
	}

	data, err := readBody(resp.Body, resp.Header.Get("Content-Encoding"), s.maxBody)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}

	var drinks []catalog.Drink
	if s.mapping != nil {
		drinks, err = s.mapping.drinks(data)
	} else {
		err = json.Unmarshal(data, &drinks)
	}
	if err != nil {
		return nil, fmt.Errorf("decode feed %s: %w", feedURL, err)
	}

	drinks = source.Normalize(drinks, s.logger)
	s.logger.Debug("fetched catalog", "festival", festivalID, "drinks", len(drinks))
	return drinks, nil
}

// NewFactory returns a source.Factory building HTTP sources from
// params:
//
//	url            feed URL, may contain {festival} (required)
//	rate           requests per second, default 1
//	burst          rate limiter burst, default 1
//	timeout        request timeout as a Go duration, default 30s
//	max_body_bytes decompressed response cap, default 32 MiB
//	mapping        JSON object of JSONPath field mappings
func NewFactory() source.Factory {
	return func(params map[string]string, logger *slog.Logger) (source.Source, error) {
		cfg := Config{URL: params["url"], Logger: logger}

		if v, ok := params["rate"]; ok {
			r, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rate %q: %w", v, err)
			}
			cfg.RequestsPerSecond = r
		}
		if v, ok := params["burst"]; ok {
			b, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid burst %q: %w", v, err)
			}
			cfg.Burst = b
		}
		if v, ok := params["timeout"]; ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid timeout %q: %w", v, err)
			}
			cfg.Timeout = d
		}
		if v, ok := params["max_body_bytes"]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid max_body_bytes %q: %w", v, err)
			}
			cfg.MaxBodyBytes = n
		}
		if v, ok := params["mapping"]; ok {
			var m Mapping
			if err := json.Unmarshal([]byte(v), &m); err != nil {
				return nil, fmt.Errorf("invalid mapping: %w", err)
			}
			cfg.Mapping = &m
		}
		return NewSource(cfg)
	}
}
