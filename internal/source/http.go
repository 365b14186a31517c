package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

var contentTypeFormats = map[string]string{
	"audio/mpeg":     ".mp3",
	"audio/mp3":      ".mp3",
	"audio/wav":      ".wav",
	"audio/x-wav":    ".wav",
	"audio/wave":     ".wav",
	"audio/vnd.wave": ".wav",
}

// HTTPSource downloads a whole track into memory before decoding
type HTTPSource struct {
	logger  *zap.Logger
	fetcher domain.Fetcher
}

// NewHTTPSource creates a resolver backed by fetcher
func NewHTTPSource(logger *zap.Logger, fetcher domain.Fetcher) *HTTPSource {
	return &HTTPSource{logger: logger, fetcher: fetcher}
}

// Open fetches track.SourceID and returns a seekable in-memory stream
func (s *HTTPSource) Open(ctx context.Context, track domain.Track) (io.ReadCloser, string, error) {
	data, contentType, err := s.fetcher.Fetch(ctx, track.SourceID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", track.SourceID, err)
	}

	format := formatFor(contentType, track.SourceID)
	s.logger.Debug("Track downloaded",
		zap.String("track", track.Title),
		zap.Int("bytes", len(data)),
		zap.String("format", format))

	return &memoryStream{Reader: bytes.NewReader(data)}, format, nil
}

// formatFor prefers the content type and falls back to the URL extension
func formatFor(contentType, rawURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentTypeFormats[mediaType]; ok {
			return ext
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		return strings.ToLower(path.Ext(u.Path))
	}
	return ""
}

// memoryStream keeps io.Seeker visible so decoders can seek
type memoryStream struct {
	*bytes.Reader
}

func (m *memoryStream) Close() error { return nil }
