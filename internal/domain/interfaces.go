package domain

import (
	"context"
	"io"
	"time"
)

// StatusListener receives every status snapshot emitted by an AudioService.
// It runs on the emitting goroutine and must not call back into the service.
type StatusListener func(AudioStatus)

// StateListener receives a copy of the playback state after each change
type StateListener func(PlaybackState)

// AudioService wraps the platform media primitive.
// All control methods may block on I/O; state changes are reported
// asynchronously through subscribed listeners.
//
//go:generate mockgen -destination=mocks/audio_service_mock.go -package=mocks github.com/genricoloni/streamly/internal/domain AudioService
type AudioService interface {
	// LoadTrack resolves, decodes and loads a track in the paused state
	LoadTrack(ctx context.Context, track Track) error

	Play(ctx context.Context) error
	Pause(ctx context.Context) error

	// Stop pauses and rewinds to 0; the track stays loaded
	Stop(ctx context.Context) error

	// Seek moves to an absolute position in seconds
	Seek(ctx context.Context, seconds float64) error

	// SetVolume expects a level in [0,1]
	SetVolume(ctx context.Context, volume float64) error

	// SetRate sets the playback speed multiplier
	SetRate(ctx context.Context, rate float64) error

	SetLooping(ctx context.Context, looping bool) error

	// CurrentTrack returns the loaded track or nil
	CurrentTrack() *Track

	// Subscribe registers a listener and returns its handle
	Subscribe(listener StatusListener) SubscriptionID

	// Unsubscribe removes a listener; unknown handles are ignored
	Unsubscribe(id SubscriptionID)
}

// SourceResolver opens the raw audio bytes behind a track
type SourceResolver interface {
	// Open returns a stream and its container format as a file extension (".wav", ".mp3")
	Open(ctx context.Context, track Track) (io.ReadCloser, string, error)
}

// Fetcher defines the interface for retrieving remote resources
type Fetcher interface {
	// Fetch downloads data from a URL
	// Returns the raw bytes and the reported content type
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// ArtworkResolver turns a track thumbnail into a local cover image
type ArtworkResolver interface {
	// Resolve returns a file:// URL for the rendered cover of track
	Resolve(ctx context.Context, track Track) (string, error)
}

// TrackLibrary supplies tracks from stored playlists
type TrackLibrary interface {
	PlaylistByName(ctx context.Context, name string) (Playlist, error)
	Tracks(ctx context.Context, playlistID string) ([]Track, error)
}

// Config defines the interface for application configuration
type Config interface {
	// GetDataDir returns the root directory for the database and caches
	GetDataDir() string

	// GetAutoplayPlaylist returns the playlist queued on startup, or ""
	GetAutoplayPlaylist() string

	// MprisEnabled reports whether the D-Bus bridge should be started
	MprisEnabled() bool

	// GetPollInterval returns the position polling period
	GetPollInterval() time.Duration

	// AutoAdvance reports whether a finished track advances the queue
	AutoAdvance() bool

	// GetArtSize returns the edge length of rendered covers in pixels
	GetArtSize() int
}
