package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat is returned when no decoder matches the container
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// decode picks a beep decoder from the container extension.
// The returned streamer owns rc and closes it.
func decode(rc io.ReadCloser, format string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		stream beep.StreamSeekCloser
		f      beep.Format
		err    error
	)
	switch format {
	case ".wav", ".wave":
		stream, f, err = wav.Decode(rc)
	case ".mp3":
		stream, f, err = mp3.Decode(rc)
	default:
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		_ = rc.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", format, err)
	}
	return stream, f, nil
}
