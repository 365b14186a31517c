// Package artwork renders track thumbnails into square covers cached on disk.
package artwork

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG thumbnails
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

const (
	cacheDirName   = "artwork"
	defaultArtSize = 512
	jpegQuality    = 90
)

// Cache fetches thumbnails and stores rendered covers under <data dir>/artwork
type Cache struct {
	logger  *zap.Logger
	fetcher domain.Fetcher
	dir     string
	size    int

	// mu serialises renders so concurrent lookups of one cover write it once
	mu sync.Mutex
}

// NewCache creates an artwork cache; fetcher must accept image content
func NewCache(logger *zap.Logger, fetcher domain.Fetcher, cfg domain.Config) *Cache {
	size := cfg.GetArtSize()
	if size <= 0 {
		size = defaultArtSize
	}
	return &Cache{
		logger:  logger,
		fetcher: fetcher,
		dir:     filepath.Join(cfg.GetDataDir(), cacheDirName),
		size:    size,
	}
}

// Render crops the image to a centred square of the configured size and encodes it as JPEG
func (c *Cache) Render(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	c.logger.Debug("Rendering cover",
		zap.Int("srcW", bounds.Dx()), zap.Int("srcH", bounds.Dy()), zap.Int("size", c.size))
	cover := imaging.Fill(img, c.size, c.size, imaging.Center, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, cover, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// Path returns the cache file for a thumbnail URL
func (c *Cache) Path(thumbnailURL string) string {
	sum := sha256.Sum256([]byte(thumbnailURL + "@" + strconv.Itoa(c.size)))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:16])+".jpg")
}

// Resolve returns a file:// URL for the track's cover, rendering it on first use.
// Tracks without a thumbnail resolve to "".
func (c *Cache) Resolve(ctx context.Context, track domain.Track) (string, error) {
	if track.ThumbnailURL == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	outputPath := c.Path(track.ThumbnailURL)
	if _, err := os.Stat(outputPath); err == nil {
		c.logger.Debug("Cover cache hit", zap.String("track", track.Title), zap.String("path", outputPath))
		return fileURL(outputPath), nil
	}

	raw, err := c.load(ctx, track.ThumbnailURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch thumbnail: %w", err)
	}

	rendered, err := c.Render(raw)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artwork directory: %w", err)
	}
	tmp := outputPath + ".tmp"
	if err := os.WriteFile(tmp, rendered, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to store cover: %w", err)
	}

	c.logger.Info("Cover cached",
		zap.String("track", track.Title),
		zap.String("path", outputPath),
		zap.Int("size", len(rendered)))
	return fileURL(outputPath), nil
}

// load reads a thumbnail from a local path or file:// URL, or fetches it over HTTP
func (c *Cache) load(ctx context.Context, thumbnailURL string) ([]byte, error) {
	if strings.HasPrefix(thumbnailURL, "file://") {
		u, err := url.Parse(thumbnailURL)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(u.Path)
	}
	if filepath.IsAbs(thumbnailURL) {
		return os.ReadFile(thumbnailURL)
	}
	data, _, err := c.fetcher.Fetch(ctx, thumbnailURL)
	return data, err
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}
