// Package keepalive pings the public URL of the service so that hosts which
// idle inactive instances keep it running.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobguide/internal/logger"
)

const (
	userAgent      = "spigell/jobguide keep-alive"
	defaultTimeout = 30 * time.Second
)

type Pinger struct {
	url        string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func New(url string, log *zap.Logger) (*Pinger, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return nil, errors.New("keepalive: url is empty")
	}
	return &Pinger{
		url:    url,
		logger: logger.WithComponent(log, "keepalive"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent: userAgent,
	}, nil
}

// Ping requests the status page and fails on anything but 200.
func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.UserAgent)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: unexpected status %d", p.url, resp.StatusCode)
	}

	p.logger.Debug("keep-alive ping succeeded", zap.String("url", p.url))
	return nil
}
