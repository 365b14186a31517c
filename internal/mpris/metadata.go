package mpris

import (
	"math"
	"net/url"
	"strings"

	"github.com/genricoloni/streamly/internal/domain"
	"github.com/godbus/dbus/v5"
)

const (
	trackPathPrefix = "/org/mpris/MediaPlayer2/streamly/track/"
	noTrackPath     = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

// Playback status values
const (
	StatusPlaying = "Playing"
	StatusPaused  = "Paused"
	StatusStopped = "Stopped"
)

// Loop status values
const (
	LoopNone     = "None"
	LoopTrack    = "Track"
	LoopPlaylist = "Playlist"
)

// toMicros converts seconds into MPRIS microseconds
func toMicros(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int64(math.Round(seconds * 1e6))
}

func fromMicros(us int64) float64 {
	return float64(us) / 1e6
}

// trackPath builds the mpris:trackid object path of a track
func trackPath(t *domain.Track) dbus.ObjectPath {
	if t == nil {
		return noTrackPath
	}
	id := t.ID
	if id == "" {
		id = "current"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return dbus.ObjectPath(trackPathPrefix + b.String())
}

// playbackStatus maps state onto PlaybackStatus
func playbackStatus(st domain.PlaybackState) string {
	switch {
	case st.CurrentTrack == nil:
		return StatusStopped
	case st.IsPlaying:
		return StatusPlaying
	default:
		return StatusPaused
	}
}

func loopStatus(looping bool) string {
	if looping {
		return LoopTrack
	}
	return LoopNone
}

// trackURL is the xesam:url of a track
func trackURL(t domain.Track) string {
	if t.Source == domain.SourceFile {
		return (&url.URL{Scheme: "file", Path: t.SourceID}).String()
	}
	return t.SourceID
}

// metadata builds the Metadata map; artURL may be empty
func metadata(st domain.PlaybackState, artURL string) map[string]dbus.Variant {
	m := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackPath(st.CurrentTrack)),
	}
	t := st.CurrentTrack
	if t == nil {
		return m
	}

	length := st.Duration
	if length <= 0 {
		length = t.Duration
	}
	m["mpris:length"] = dbus.MakeVariant(toMicros(length))
	m["xesam:title"] = dbus.MakeVariant(t.Title)
	m["xesam:url"] = dbus.MakeVariant(trackURL(*t))
	if t.Artist != "" {
		m["xesam:artist"] = dbus.MakeVariant([]string{t.Artist})
	}
	if t.Album != "" {
		m["xesam:album"] = dbus.MakeVariant(t.Album)
	}
	if artURL != "" {
		m["mpris:artUrl"] = dbus.MakeVariant(artURL)
	}
	return m
}
