package source

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"catalog/consolidator/internal/config"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

type httpSource struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	urls       []string
}

// NewHTTPSource treats every configured URL as one input unit.
func NewHTTPSource(cfg config.InputConfig) Source {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("Accept", "application/json")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &httpSource{
		rl:         rl,
		httpClient: client,
		urls:       cfg.URLs,
	}
}

func (s *httpSource) Units(ctx context.Context) ([]Unit, error) {
	units := make([]Unit, 0, len(s.urls))
	for _, url := range s.urls {
		units = append(units, Unit{Name: url, source: s})
	}
	log.Infof("There are %d product URLs to fetch", len(units))
	return units, nil
}

func (s *httpSource) Load(ctx context.Context, url string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}
	s.rl.Take()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error fetching %s: %d %s", url, resp.StatusCode(), resp.Status())
	}

	log.Debugf("Fetched %s (%d bytes)", url, len(resp.Bytes()))
	tree, err := Decode(bytes.NewReader(resp.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return tree, nil
}
