package zap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"zap-scraper/config"
	"zap-scraper/models"
	"zap-scraper/utils"
)

// maxBodyBytes caps how much of a results page is read into memory.
const maxBodyBytes = 16 << 20

var errBodyTooLarge = errors.New("body too large")

// Fetcher issues one GET per results page against the portal.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *utils.Logger
	retry     *utils.RetryConfig
	maxBody   int64
}

func NewFetcher(cfg *config.Config, logger *utils.Logger) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via INSECURE_SKIP_VERIFY
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
			ShouldRetry: isTransient,
		},
		maxBody: maxBodyBytes,
	}
}

// Fetch downloads the results page for c. Transient failures are retried;
// whatever error is finally returned wraps a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, c models.SearchCriteria) ([]byte, int, error) {
	path := c.Path()
	var (
		body   []byte
		status int
	)

	err := f.retry.Do(ctx, "fetch "+path, func() error {
		var err error
		body, status, err = f.fetchOnce(ctx, path)
		return err
	})
	if err != nil {
		return nil, status, err
	}
	return body, status, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, 0, &FetchError{Path: path, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Info("[fetch] %s %s -> error (%v)", http.MethodGet, path, err)
		return nil, 0, &FetchError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	f.logger.Info("[fetch] %s %s -> %d (%v)", http.MethodGet, path, resp.StatusCode,
		time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBody))
		return nil, resp.StatusCode, &FetchError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, &FetchError{Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBody {
		return nil, resp.StatusCode, &FetchError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: more than %d bytes", errBodyTooLarge, f.maxBody),
		}
	}
	return body, resp.StatusCode, nil
}
