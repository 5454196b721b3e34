package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"meshalias/internal/config"
)

// Client downloads the MeSH descriptor file.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	log        zerolog.Logger
	sleep      func(time.Duration)
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.RateLimitRPS),
		log:        log,
		sleep:      time.Sleep,
	}
}

// Download writes the descriptor file to destPath and returns its size. The
// previous file at destPath is only replaced once the body has been read fully.
func (c *Client) Download(ctx context.Context, destPath string) (int64, error) {
	if err := c.cfg.Require("MESH_SOURCE_URL", c.cfg.SourceURL); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}

	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}

		n, retry, err := c.fetchOnce(ctx, destPath)
		if err == nil {
			c.log.Info().Str("url", c.cfg.SourceURL).Int64("bytes", n).Int("attempt", attempt).Msg("descriptor file downloaded")
			return n, nil
		}
		lastErr = err
		if !retry || attempt == attempts || ctx.Err() != nil {
			break
		}
		backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("descriptor download failed, retrying")
		c.sleep(backoff)
	}

	if lastErr == nil {
		lastErr = errors.New("mesh download failed")
	}
	return 0, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, destPath string) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SourceURL, nil)
	if err != nil {
		return 0, false, err
	}
	req.Header.Set("Accept", "application/xml")
	if ua := strings.TrimSpace(c.cfg.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("mesh download error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		return 0, isRetryableStatus(resp.StatusCode), err
	}

	partPath := destPath + ".part"
	f, err := os.Create(partPath)
	if err != nil {
		return 0, false, err
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(partPath)
		return 0, true, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(partPath)
		return 0, false, closeErr
	}
	if err := os.Rename(partPath, destPath); err != nil {
		return 0, false, err
	}
	return n, false, nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
