package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger sends a keep-alive GET to a fixed URL so hosting platforms that
// idle inactive services keep this one warm.
type Pinger struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewPinger creates a Pinger with a per-request timeout.
func NewPinger(url string, timeout time.Duration, log *logrus.Logger) *Pinger {
	return &Pinger{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Ping performs one request. Non-2xx/3xx responses are errors.
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("ping %s: unexpected status %d", p.url, resp.StatusCode)
	}

	p.log.WithFields(logrus.Fields{
		"url":    p.url,
		"status": resp.StatusCode,
	}).Info("keep-alive ping sent")
	return nil
}
