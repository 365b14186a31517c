package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	_maxImageSize = 10 * 1024 * 1024  // 10 MB
	_maxAudioSize = 100 * 1024 * 1024 // 100 MB
)

// ErrTooLarge is returned when a body is larger than Options.MaxBytes
var ErrTooLarge = errors.New("response too large")

// Options restricts what a fetcher accepts
type Options struct {
	// ContentPrefix is the required Content-Type prefix (e.g. "image/")
	ContentPrefix string
	// MaxBytes rejects bodies beyond this size
	MaxBytes int64
	Timeout  time.Duration
}

// HTTPFetcher handles downloading data from HTTP/HTTPS URLs
type HTTPFetcher struct {
	logger *zap.Logger
	client *http.Client
	opts   Options
}

// NewHTTPFetcher creates a fetcher with the given restrictions
func NewHTTPFetcher(logger *zap.Logger, opts Options) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		logger: logger,
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		opts: opts,
	}
}

// NewImageFetcher accepts image/* responses up to 10 MB
func NewImageFetcher(logger *zap.Logger) *HTTPFetcher {
	return NewHTTPFetcher(logger, Options{ContentPrefix: "image/", MaxBytes: _maxImageSize})
}

// NewAudioFetcher accepts audio/* responses up to 100 MB
func NewAudioFetcher(logger *zap.Logger) *HTTPFetcher {
	return NewHTTPFetcher(logger, Options{
		ContentPrefix: "audio/",
		MaxBytes:      _maxAudioSize,
		Timeout:       2 * time.Minute,
	})
}

// Fetch downloads data from the given URL
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", fmt.Errorf("unsupported protocol: %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "streamly/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if f.opts.ContentPrefix != "" && !strings.HasPrefix(contentType, f.opts.ContentPrefix) {
		return nil, "", fmt.Errorf("unexpected content type %q, want %s*", contentType, f.opts.ContentPrefix)
	}

	// Read one byte past the limit so an oversized body fails instead of being cut
	var body io.Reader = resp.Body
	if f.opts.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.opts.MaxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if f.opts.MaxBytes > 0 && int64(len(data)) > f.opts.MaxBytes {
		f.logger.Warn("Response exceeds size limit",
			zap.String("url", url),
			zap.Int64("maxBytes", f.opts.MaxBytes))
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.opts.MaxBytes)
	}

	f.logger.Debug("Resource fetched successfully",
		zap.Int("bytes", len(data)),
		zap.String("contentType", contentType),
		zap.String("url", url))
	return data, contentType, nil
}
