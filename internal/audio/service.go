// Package audio implements the AudioService on top of beep.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned by transport controls when no track is loaded
var ErrNotLoaded = errors.New("no track loaded")

const _defaultPollInterval = 500 * time.Millisecond

// Service decodes tracks with beep and plays them into a Sink.
// Lock order: mu, then the sink lock.
type Service struct {
	logger   *zap.Logger
	resolver domain.SourceResolver
	sink     Sink
	interval time.Duration

	mu         sync.Mutex
	current    *chain
	track      *domain.Track
	playing    bool
	volume     float64
	rate       float64
	looping    bool
	lastErr    string
	generation uint64
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	// emitMu keeps listener delivery in emission order
	emitMu      sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[domain.SubscriptionID]domain.StatusListener
	nextID      domain.SubscriptionID
}

// NewService creates an audio service. interval <= 0 selects the default polling period.
func NewService(logger *zap.Logger, resolver domain.SourceResolver, sink Sink, interval time.Duration) *Service {
	if interval <= 0 {
		interval = _defaultPollInterval
	}
	return &Service{
		logger:    logger,
		resolver:  resolver,
		sink:      sink,
		interval:  interval,
		volume:    1,
		rate:      1,
		listeners: make(map[domain.SubscriptionID]domain.StatusListener),
	}
}

// Start launches the position polling loop. It returns immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	pollCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.pollLoop(pollCtx)

	s.logger.Info("Audio service started", zap.Duration("pollInterval", s.interval))
	return nil
}

// Close stops polling and releases the loaded track
func (s *Service) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	old := s.current
	s.current = nil
	s.track = nil
	s.playing = false
	s.generation++
	s.mu.Unlock()

	var err error
	if old != nil {
		s.sink.Clear()
		err = old.stream.Close()
	}
	s.logger.Info("Audio service stopped")
	return err
}

func (s *Service) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.current == nil || !s.playing {
				s.mu.Unlock()
				continue
			}
			st := s.statusLocked()
			s.mu.Unlock()
			s.emit(st)
		}
	}
}

// Subscribe registers a listener and returns its handle
func (s *Service) Subscribe(listener domain.StatusListener) domain.SubscriptionID {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	s.listeners[s.nextID] = listener
	return s.nextID
}

// Unsubscribe removes a listener
func (s *Service) Unsubscribe(id domain.SubscriptionID) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	delete(s.listeners, id)
}

// emit delivers st to every listener in subscription order
func (s *Service) emit(st domain.AudioStatus) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.listenersMu.RLock()
	ids := make([]domain.SubscriptionID, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]domain.StatusListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(st)
	}
}

// statusLocked snapshots the service; callers hold mu
func (s *Service) statusLocked() domain.AudioStatus {
	st := domain.AudioStatus{
		IsPlaying: s.playing,
		Volume:    s.volume,
		Rate:      s.rate,
		IsLooping: s.looping,
		Error:     s.lastErr,
	}
	if s.current != nil {
		s.sink.Lock()
		pos, n := s.current.stream.Position(), s.current.stream.Len()
		s.sink.Unlock()
		st.IsLoaded = true
		st.Position = s.current.seconds(pos)
		st.Duration = s.current.seconds(n)
	}
	return st
}

// fail records err as the last error and emits it
func (s *Service) fail(op string, err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	st := s.statusLocked()
	s.mu.Unlock()

	s.logger.Warn("Audio operation failed", zap.String("op", op), zap.Error(err))
	s.emit(st)
	return fmt.Errorf("%s: %w", op, err)
}

// LoadTrack resolves and decodes track, replacing the loaded one in the paused state.
// On failure the previously loaded track stays in place.
func (s *Service) LoadTrack(ctx context.Context, track domain.Track) error {
	s.mu.Lock()
	buffering := s.statusLocked()
	s.mu.Unlock()
	buffering.IsBuffering = true
	s.emit(buffering)

	rc, format, err := s.resolver.Open(ctx, track)
	if err != nil {
		return s.fail("load", err)
	}
	stream, f, err := decode(rc, format)
	if err != nil {
		return s.fail("load", err)
	}

	s.mu.Lock()
	c := newChain(stream, f, s.sink.SampleRate(), s.volume, s.rate, s.looping)
	s.generation++
	gen := s.generation
	if err := s.sink.Replace(s.attach(c, gen)); err != nil {
		s.mu.Unlock()
		_ = stream.Close()
		return s.fail("load", err)
	}
	old := s.current
	t := track
	s.current = c
	s.track = &t
	s.playing = false
	s.lastErr = ""
	st := s.statusLocked()
	s.mu.Unlock()

	if old != nil {
		if err := old.stream.Close(); err != nil {
			s.logger.Warn("Failed to close previous stream", zap.Error(err))
		}
	}

	s.logger.Info("Track loaded",
		zap.String("track", track.Title),
		zap.String("artist", track.Artist),
		zap.String("format", format),
		zap.Int("sampleRate", int(f.SampleRate)),
		zap.Float64("duration", st.Duration))
	s.emit(st)
	return nil
}

// attach wraps c so the end of the stream reports back with its generation
func (s *Service) attach(c *chain, gen uint64) beep.Streamer {
	c.attached = true
	return beep.Seq(c.ctrl, beep.Callback(func() {
		// Runs on the device goroutine with the sink locked
		go s.finished(gen)
	}))
}

// finished handles natural end of the track loaded as generation gen
func (s *Service) finished(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current.attached = false
	s.playing = false
	st := s.statusLocked()
	title := s.track.Title
	s.mu.Unlock()

	st.DidJustFinish = true
	s.logger.Info("Track finished", zap.String("track", title))
	s.emit(st)
}

// reattachLocked puts a drained pipeline back on the device
func (s *Service) reattachLocked() error {
	if s.current.attached {
		return nil
	}
	// Detached pipelines are not read by the device, no sink lock needed
	if s.current.stream.Position() >= s.current.stream.Len() {
		if err := s.current.stream.Seek(0); err != nil {
			return err
		}
	}
	s.generation++
	return s.sink.Replace(s.attach(s.current, s.generation))
}

// control runs fn on the loaded pipeline with the sink locked, then emits the result
func (s *Service) control(op string, fn func(c *chain) error) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return s.fail(op, ErrNotLoaded)
	}
	if err := s.reattachLocked(); err != nil {
		s.mu.Unlock()
		return s.fail(op, err)
	}
	s.sink.Lock()
	err := fn(s.current)
	s.sink.Unlock()
	if err != nil {
		s.mu.Unlock()
		return s.fail(op, err)
	}
	s.lastErr = ""
	st := s.statusLocked()
	s.mu.Unlock()

	s.emit(st)
	return nil
}

// Play resumes the loaded track
func (s *Service) Play(ctx context.Context) error {
	return s.control("play", func(c *chain) error {
		c.ctrl.Paused = false
		s.playing = true
		return nil
	})
}

// Pause halts the loaded track at its position
func (s *Service) Pause(ctx context.Context) error {
	return s.control("pause", func(c *chain) error {
		c.ctrl.Paused = true
		s.playing = false
		return nil
	})
}

// Stop pauses and rewinds; the track stays loaded
func (s *Service) Stop(ctx context.Context) error {
	return s.control("stop", func(c *chain) error {
		c.ctrl.Paused = true
		s.playing = false
		return c.stream.Seek(0)
	})
}

// Seek moves to an absolute position in seconds, clamped to the track
func (s *Service) Seek(ctx context.Context, seconds float64) error {
	if math.IsNaN(seconds) {
		return s.fail("seek", fmt.Errorf("invalid position"))
	}
	return s.control("seek", func(c *chain) error {
		return c.stream.Seek(c.samples(seconds))
	})
}

// SetVolume clamps level into [0,1]; it applies to later loads too
func (s *Service) SetVolume(ctx context.Context, level float64) error {
	if math.IsNaN(level) {
		return s.fail("volume", fmt.Errorf("invalid volume"))
	}
	level = math.Max(0, math.Min(1, level))
	return s.setting(func() {
		s.volume = level
		if s.current != nil {
			applyVolume(s.current.volume, level)
		}
	})
}

// SetRate changes the playback speed multiplier
func (s *Service) SetRate(ctx context.Context, rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return s.fail("rate", fmt.Errorf("invalid rate %v", rate))
	}
	return s.setting(func() {
		s.rate = rate
		if s.current != nil {
			s.current.resampler.SetRatio(resampleRatio(s.current.format.SampleRate, s.sink.SampleRate(), rate))
		}
	})
}

// SetLooping toggles rewinding at the end of the track
func (s *Service) SetLooping(ctx context.Context, looping bool) error {
	return s.setting(func() {
		s.looping = looping
		if s.current != nil {
			s.current.loop.looping = looping
		}
	})
}

// setting applies fn under the locks; it works with or without a loaded track
func (s *Service) setting(fn func()) error {
	s.mu.Lock()
	if s.current != nil {
		s.sink.Lock()
		fn()
		s.sink.Unlock()
	} else {
		fn()
	}
	s.lastErr = ""
	st := s.statusLocked()
	s.mu.Unlock()

	s.emit(st)
	return nil
}

// CurrentTrack returns a copy of the loaded track or nil
func (s *Service) CurrentTrack() *domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}
