// Package source resolves tracks into readable audio streams.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

// ErrUnsupportedSource is returned for source types no resolver handles
var ErrUnsupportedSource = errors.New("unsupported source")

// Router dispatches a track to the resolver registered for its source type
type Router struct {
	logger    *zap.Logger
	resolvers map[domain.SourceType]domain.SourceResolver
}

// NewRouter creates a router for local files and plain HTTP downloads.
// YouTube tracks need an external resolver registered with Register.
func NewRouter(logger *zap.Logger, audioFetcher domain.Fetcher) *Router {
	r := &Router{
		logger:    logger,
		resolvers: make(map[domain.SourceType]domain.SourceResolver),
	}
	r.Register(domain.SourceFile, NewFileSource())
	r.Register(domain.SourceHTTP, NewHTTPSource(logger, audioFetcher))
	return r
}

// Register installs or replaces the resolver for a source type
func (r *Router) Register(kind domain.SourceType, resolver domain.SourceResolver) {
	r.resolvers[kind] = resolver
}

// Open resolves the track with the matching resolver
func (r *Router) Open(ctx context.Context, track domain.Track) (io.ReadCloser, string, error) {
	resolver, ok := r.resolvers[track.Source]
	if !ok {
		r.logger.Warn("No resolver for source",
			zap.String("source", string(track.Source)),
			zap.String("track", track.Title))
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedSource, track.Source)
	}
	return resolver.Open(ctx, track)
}
