package audio

import (
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

// loopStreamer rewinds its source on exhaustion while looping is set.
// looping is read on the device goroutine; change it under the sink lock.
type loopStreamer struct {
	s       beep.StreamSeeker
	looping bool
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		sn, sok := l.s.Stream(samples[n:])
		n += sn
		if sok {
			if sn == 0 {
				break
			}
			continue
		}
		if !l.looping || l.s.Len() == 0 {
			return n, n > 0
		}
		if err := l.s.Seek(0); err != nil {
			return n, n > 0
		}
	}
	return n, true
}

func (l *loopStreamer) Err() error {
	return l.s.Err()
}

// applyVolume maps a linear level in [0,1] onto a base-2 effects.Volume
func applyVolume(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}

// chain is the per-track streamer pipeline:
// source -> loop -> resample (rate) -> volume -> pause control
type chain struct {
	stream    beep.StreamSeekCloser
	format    beep.Format
	loop      *loopStreamer
	resampler *beep.Resampler
	volume    *effects.Volume
	ctrl      *beep.Ctrl
	// attached is false once the device has drained the pipeline
	attached bool
}

const _resampleQuality = 4

func newChain(stream beep.StreamSeekCloser, format beep.Format, out beep.SampleRate, level, rate float64, looping bool) *chain {
	c := &chain{
		stream: stream,
		format: format,
		loop:   &loopStreamer{s: stream, looping: looping},
	}
	c.resampler = beep.ResampleRatio(_resampleQuality, resampleRatio(format.SampleRate, out, rate), c.loop)
	c.volume = &effects.Volume{Streamer: c.resampler, Base: 2}
	applyVolume(c.volume, level)
	c.ctrl = &beep.Ctrl{Streamer: c.volume, Paused: true}
	return c
}

func resampleRatio(in, out beep.SampleRate, rate float64) float64 {
	return float64(in) / float64(out) * rate
}

// seconds converts a sample offset of the source into seconds
func (c *chain) seconds(samples int) float64 {
	return c.format.SampleRate.D(samples).Seconds()
}

// samples converts seconds into a clamped sample offset of the source
func (c *chain) samples(seconds float64) int {
	n := int(math.Round(seconds * float64(c.format.SampleRate)))
	if n < 0 {
		n = 0
	}
	if last := c.stream.Len() - 1; last >= 0 && n > last {
		n = last
	}
	return n
}
