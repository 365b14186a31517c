package domain

import "time"

// SourceType identifies where the audio for a track comes from
type SourceType string

const (
	// SourceYouTube tracks are resolved by an external YouTube collaborator
	SourceYouTube SourceType = "youtube"
	// SourceFile tracks point at a local audio file (SourceID is the path)
	SourceFile SourceType = "file"
	// SourceHTTP tracks are downloaded from a plain HTTP(S) URL (SourceID is the URL)
	SourceHTTP SourceType = "http"
)

// Track is an immutable description of one playable audio item
type Track struct {
	ID       string
	Source   SourceType
	SourceID string
	Title    string
	Artist   string
	// Album is empty when unknown
	Album string
	// Duration in seconds as reported by the track source
	Duration float64
	// ThumbnailURL is empty when the source has no artwork
	ThumbnailURL string
	CreatedAt    time.Time
}

// ErrorInfo describes the last failed playback intent
type ErrorInfo struct {
	// Op is the intent that failed (e.g. "load", "seek")
	Op      string
	Message string
}

func (e *ErrorInfo) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

// PlaybackState is the coordinator's observable view of playback.
// Position, Duration are in seconds.
type PlaybackState struct {
	CurrentTrack *Track
	Queue        []Track

	IsPlaying   bool
	Position    float64
	Duration    float64
	Volume      float64
	Rate        float64
	IsLooping   bool
	IsBuffering bool
	IsLoading   bool
	// DidJustFinish is set by the notification emitted when a track reaches its end
	DidJustFinish bool

	// Err is nil when the last intent succeeded
	Err *ErrorInfo
}

// Clone returns a deep copy that shares no memory with s
func (s PlaybackState) Clone() PlaybackState {
	out := s
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		out.CurrentTrack = &t
	}
	if s.Queue != nil {
		out.Queue = make([]Track, len(s.Queue))
		copy(out.Queue, s.Queue)
	}
	if s.Err != nil {
		e := *s.Err
		out.Err = &e
	}
	return out
}

// AudioStatus is the unified snapshot emitted by an AudioService
type AudioStatus struct {
	IsPlaying     bool
	Duration      float64
	Position      float64
	Volume        float64
	IsLoaded      bool
	Error         string
	IsBuffering   bool
	Rate          float64
	IsLooping     bool
	DidJustFinish bool
}

// SubscriptionID identifies a registered listener
type SubscriptionID uint64

// Playlist is a named, ordered collection of tracks
type Playlist struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
