// Package player holds the playback coordinator: the single owner of
// PlaybackState and the only caller of the AudioService.
//
// Intents never return errors. A failed intent is recorded in
// PlaybackState.Err and logged; callers observe it through State or Subscribe.
package player

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

// restartThreshold is the position after which Previous counts as a restart
const restartThreshold = 3.0

// Coordinator translates intents into AudioService calls and reconciles
// the service's status notifications into PlaybackState.
//
// mu is never held across an AudioService call, so notifications that
// arrive while an intent is in flight are applied immediately.
type Coordinator struct {
	logger *zap.Logger
	audio  domain.AudioService
	sub    domain.SubscriptionID

	mu    sync.Mutex
	state domain.PlaybackState
	// outbox holds snapshots in mutation order until publish delivers them
	outbox []domain.PlaybackState

	notifyMu    sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[domain.SubscriptionID]domain.StateListener
	nextID      domain.SubscriptionID
}

// NewCoordinator creates the coordinator and subscribes it to audio
func NewCoordinator(logger *zap.Logger, audio domain.AudioService) *Coordinator {
	c := &Coordinator{
		logger: logger,
		audio:  audio,
		state: domain.PlaybackState{
			Volume: 1,
			Rate:   1,
		},
		listeners: make(map[domain.SubscriptionID]domain.StateListener),
	}
	c.sub = audio.Subscribe(c.reconcile)
	return c
}

// Close detaches the coordinator from the audio service
func (c *Coordinator) Close() error {
	c.audio.Unsubscribe(c.sub)
	return nil
}

// State returns a copy of the current playback state
func (c *Coordinator) State() domain.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers a listener for state snapshots.
// Listeners run synchronously and must not issue intents from the callback.
func (c *Coordinator) Subscribe(listener domain.StateListener) domain.SubscriptionID {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.nextID++
	c.listeners[c.nextID] = listener
	return c.nextID
}

// Unsubscribe removes a state listener
func (c *Coordinator) Unsubscribe(id domain.SubscriptionID) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	delete(c.listeners, id)
}

// update mutates state under the lock and publishes the result.
// DidJustFinish only survives on the snapshot of the notification that set it.
func (c *Coordinator) update(fn func(s *domain.PlaybackState)) {
	c.mu.Lock()
	c.state.DidJustFinish = false
	fn(&c.state)
	normalize(&c.state)
	c.outbox = append(c.outbox, c.state.Clone())
	c.mu.Unlock()

	c.publish()
}

// publish delivers every queued snapshot to every listener, in mutation order
// and then subscription order. Snapshots are never coalesced.
func (c *Coordinator) publish() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	c.listenersMu.RLock()
	ids := make([]domain.SubscriptionID, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]domain.StateListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.listenersMu.RUnlock()

	for _, snapshot := range pending {
		for _, fn := range fns {
			fn(snapshot.Clone())
		}
	}
}

// normalize enforces the state invariants
func normalize(s *domain.PlaybackState) {
	if s.CurrentTrack == nil {
		s.IsPlaying = false
		s.Position = 0
	}
	s.Volume = clamp01(s.Volume)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// reconcile replaces the derived fields with an audio notification; last write wins
func (c *Coordinator) reconcile(st domain.AudioStatus) {
	c.update(func(s *domain.PlaybackState) {
		s.IsPlaying = st.IsPlaying
		s.Duration = st.Duration
		s.Position = st.Position
		s.Volume = st.Volume
		s.IsLoading = !st.IsLoaded
		s.IsBuffering = st.IsBuffering
		s.Rate = st.Rate
		s.IsLooping = st.IsLooping
		s.DidJustFinish = st.DidJustFinish
		if st.Error != "" {
			s.Err = &domain.ErrorInfo{Op: "audio", Message: st.Error}
		} else {
			s.Err = nil
		}
	})
}

// record stores a failed intent in state
func (c *Coordinator) record(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	c.logger.Error("Playback intent failed", fields...)
	c.update(func(s *domain.PlaybackState) {
		s.Err = &domain.ErrorInfo{Op: op, Message: err.Error()}
	})
}

// hasTrack reports whether a track is loaded
func (c *Coordinator) hasTrack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentTrack != nil
}

// LoadTrack loads track without starting it. On failure CurrentTrack is left untouched.
func (c *Coordinator) LoadTrack(ctx context.Context, track domain.Track) {
	c.load(ctx, track)
}

func (c *Coordinator) load(ctx context.Context, track domain.Track) bool {
	c.update(func(s *domain.PlaybackState) {
		s.IsLoading = true
		s.Err = nil
	})

	if err := c.audio.LoadTrack(ctx, track); err != nil {
		c.logger.Error("Failed to load track",
			zap.String("track", track.Title),
			zap.String("source", string(track.Source)),
			zap.Error(err))
		c.update(func(s *domain.PlaybackState) {
			s.IsLoading = false
			s.Err = &domain.ErrorInfo{Op: "load", Message: err.Error()}
		})
		return false
	}

	c.update(func(s *domain.PlaybackState) {
		t := track
		s.CurrentTrack = &t
		s.IsLoading = false
	})
	c.logger.Info("Track ready",
		zap.String("id", track.ID),
		zap.String("track", track.Title),
		zap.String("artist", track.Artist))
	return true
}

// Play loads and starts track, or resumes the current track when track is nil
func (c *Coordinator) Play(ctx context.Context, track *domain.Track) {
	if track != nil {
		if !c.load(ctx, *track) {
			return
		}
	} else if !c.hasTrack() {
		c.logger.Debug("Play ignored, nothing loaded")
		return
	}

	if err := c.audio.Play(ctx); err != nil {
		c.record("play", err)
	}
}

// Pause pauses the current track; without one it does nothing
func (c *Coordinator) Pause(ctx context.Context) {
	if !c.hasTrack() {
		return
	}
	if err := c.audio.Pause(ctx); err != nil {
		c.record("pause", err)
	}
}

// TogglePlayback pauses when playing and resumes otherwise
func (c *Coordinator) TogglePlayback(ctx context.Context) {
	if c.State().IsPlaying {
		c.Pause(ctx)
		return
	}
	c.Play(ctx, nil)
}

// Stop halts playback and rewinds; the current track stays selected
func (c *Coordinator) Stop(ctx context.Context) {
	if c.hasTrack() {
		if err := c.audio.Stop(ctx); err != nil {
			c.record("stop", err)
		}
	}
	c.update(func(s *domain.PlaybackState) {
		s.IsPlaying = false
		s.Position = 0
	})
}

// Next plays the queue head. With an empty queue it stops playback.
// A head that fails to load is consumed.
func (c *Coordinator) Next(ctx context.Context) {
	var (
		next  domain.Track
		found bool
	)
	c.update(func(s *domain.PlaybackState) {
		if len(s.Queue) == 0 {
			return
		}
		next, found = s.Queue[0], true
		s.Queue = append([]domain.Track(nil), s.Queue[1:]...)
	})

	if !found {
		c.logger.Info("Queue exhausted, stopping playback")
		c.Stop(ctx)
		return
	}
	c.Play(ctx, &next)
}

// Previous restarts the current track. There is no history stack, so
// the behaviour is the same whatever the position.
func (c *Coordinator) Previous(ctx context.Context) {
	st := c.State()
	if st.CurrentTrack == nil {
		return
	}
	if st.Position > restartThreshold {
		c.logger.Debug("Restarting current track", zap.Float64("position", st.Position))
	} else {
		c.logger.Debug("No previous track, restarting current track")
	}
	if err := c.audio.Seek(ctx, 0); err != nil {
		c.record("previous", err)
	}
}

// Seek moves to position seconds, clamped to the known duration
func (c *Coordinator) Seek(ctx context.Context, position float64) {
	st := c.State()
	if math.IsNaN(position) {
		c.record("seek", errInvalid("position", position))
		return
	}
	if position < 0 {
		position = 0
	}
	if st.Duration > 0 && position > st.Duration {
		position = st.Duration
	}
	if err := c.audio.Seek(ctx, position); err != nil {
		c.record("seek", err, zap.Float64("position", position))
	}
}

// SetVolume clamps v into [0,1] and applies it
func (c *Coordinator) SetVolume(ctx context.Context, v float64) {
	if math.IsNaN(v) {
		c.record("volume", errInvalid("volume", v))
		return
	}
	if err := c.audio.SetVolume(ctx, clamp01(v)); err != nil {
		c.record("volume", err, zap.Float64("volume", v))
	}
}

// SetRate applies a positive playback speed multiplier
func (c *Coordinator) SetRate(ctx context.Context, r float64) {
	if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		c.record("rate", errInvalid("rate", r))
		return
	}
	if err := c.audio.SetRate(ctx, r); err != nil {
		c.record("rate", err, zap.Float64("rate", r))
	}
}

// SetLooping toggles repeat of the current track
func (c *Coordinator) SetLooping(ctx context.Context, looping bool) {
	if err := c.audio.SetLooping(ctx, looping); err != nil {
		c.record("loop", err, zap.Bool("looping", looping))
	}
}
