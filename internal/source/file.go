package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/streamly/internal/domain"
)

// FileSource opens tracks stored on the local filesystem
type FileSource struct{}

// NewFileSource creates a local file resolver
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Open returns the file behind track.SourceID; the extension selects the decoder
func (s *FileSource) Open(ctx context.Context, track domain.Track) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	path := filepath.Clean(strings.TrimSpace(track.SourceID))
	if path == "." || path == "" {
		return nil, "", fmt.Errorf("empty file path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, strings.ToLower(filepath.Ext(path)), nil
}
