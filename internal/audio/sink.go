package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"
)

const (
	_sinkSampleRate = beep.SampleRate(44100)
	_sinkBuffer     = 100 * time.Millisecond
)

// Sink is the output device the service plays into.
// Lock/Unlock guard streamers that the device goroutine is reading.
type Sink interface {
	SampleRate() beep.SampleRate

	// Replace drops whatever is playing and starts s
	Replace(s beep.Streamer) error

	// Clear drops whatever is playing
	Clear()

	Lock()
	Unlock()
}

// SpeakerSink plays through the system audio device via beep/speaker
type SpeakerSink struct {
	logger  *zap.Logger
	once    sync.Once
	initErr error
}

// NewSpeakerSink creates a sink; the device is opened on first playback
func NewSpeakerSink(logger *zap.Logger) *SpeakerSink {
	return &SpeakerSink{logger: logger}
}

// SampleRate returns the fixed device sample rate
func (s *SpeakerSink) SampleRate() beep.SampleRate {
	return _sinkSampleRate
}

func (s *SpeakerSink) init() error {
	s.once.Do(func() {
		s.initErr = speaker.Init(_sinkSampleRate, _sinkSampleRate.N(_sinkBuffer))
		if s.initErr != nil {
			s.logger.Error("Failed to open audio device", zap.Error(s.initErr))
			return
		}
		s.logger.Info("Audio device opened",
			zap.Int("sampleRate", int(_sinkSampleRate)),
			zap.Duration("buffer", _sinkBuffer))
	})
	if s.initErr != nil {
		return fmt.Errorf("audio device unavailable: %w", s.initErr)
	}
	return nil
}

// Replace clears the device and plays s
func (s *SpeakerSink) Replace(st beep.Streamer) error {
	if err := s.init(); err != nil {
		return err
	}
	speaker.Clear()
	speaker.Play(st)
	return nil
}

// Clear stops all playback on the device
func (s *SpeakerSink) Clear() {
	if s.init() != nil {
		return
	}
	speaker.Clear()
}

// Lock blocks the device goroutine
func (s *SpeakerSink) Lock() {
	if s.init() != nil {
		return
	}
	speaker.Lock()
}

// Unlock releases the device goroutine
func (s *SpeakerSink) Unlock() {
	if s.init() != nil {
		return
	}
	speaker.Unlock()
}
