package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

// Player is the part of the coordinator the engine drives
type Player interface {
	State() domain.PlaybackState
	Subscribe(listener domain.StateListener) domain.SubscriptionID
	Unsubscribe(id domain.SubscriptionID)
	Enqueue(tracks ...domain.Track)
	Next(ctx context.Context)
}

// ErrPlaylistNotFound is logged when the autoplay playlist is missing
var ErrPlaylistNotFound = errors.New("autoplay playlist not found")

// Engine runs the playback session: it queues the autoplay playlist on start,
// advances the queue when a track ends, and logs what is playing.
type Engine struct {
	logger  *zap.Logger
	cfg     domain.Config
	player  Player
	library domain.TrackLibrary

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	sub             domain.SubscriptionID
	lastDropWarning time.Time
	wg              sync.WaitGroup

	events   chan domain.PlaybackState
	finished chan struct{}
}

// NewEngine creates a new session engine
func NewEngine(logger *zap.Logger, cfg domain.Config, player Player, library domain.TrackLibrary) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		player:   player,
		library:  library,
		events:   make(chan domain.PlaybackState, 10),
		finished: make(chan struct{}, 1),
	}
}

// Start launches the engine's event processing loop in a goroutine.
// It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	e.mu.Unlock()

	e.logger.Info("Engine starting...", zap.Bool("autoAdvance", e.cfg.AutoAdvance()))
	e.sub = e.player.Subscribe(e.onState)

	e.wg.Add(1)
	go e.runLoop(loopCtx)
	return nil
}

// Stop detaches from the player and waits for the loop to exit
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.cancel()
	e.mu.Unlock()

	e.player.Unsubscribe(e.sub)
	e.wg.Wait()

	e.logger.Info("Engine stopped")
	return nil
}

// onState forwards state to the loop; it runs on the coordinator's goroutine
// and must not call back into the player
func (e *Engine) onState(st domain.PlaybackState) {
	if st.DidJustFinish && !st.IsLooping {
		select {
		case e.finished <- struct{}{}:
		default:
		}
	}

	select {
	case e.events <- st:
	default:
		e.logChannelFullWarning()
	}
}

// runLoop queues the autoplay playlist, then reacts to state changes
func (e *Engine) runLoop(ctx context.Context) {
	defer e.wg.Done()

	if name := e.cfg.GetAutoplayPlaylist(); name != "" {
		if err := e.autoplay(ctx, name); err != nil {
			e.logger.Warn("Autoplay skipped", zap.String("playlist", name), zap.Error(err))
		}
	}

	var nowPlaying string
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case st := <-e.events:
			nowPlaying = e.logTransition(nowPlaying, st)

		case <-e.finished:
			if !e.cfg.AutoAdvance() {
				e.logger.Debug("Track finished, auto-advance disabled")
				continue
			}
			e.logger.Info("Track finished, advancing queue", zap.Int("queued", len(e.player.State().Queue)))
			e.player.Next(ctx)
		}
	}
}

// autoplay queues every track of the named playlist and starts the first one
func (e *Engine) autoplay(ctx context.Context, name string) error {
	playlist, err := e.library.PlaylistByName(ctx, name)
	if err != nil {
		return errors.Join(ErrPlaylistNotFound, err)
	}

	tracks, err := e.library.Tracks(ctx, playlist.ID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		e.logger.Info("Autoplay playlist is empty", zap.String("playlist", name))
		return nil
	}

	e.player.Enqueue(tracks...)
	e.logger.Info("Autoplay queued",
		zap.String("playlist", playlist.Name),
		zap.Int("tracks", len(tracks)))
	e.player.Next(ctx)
	return nil
}

// logTransition logs track changes and returns the key of the track now loaded
func (e *Engine) logTransition(prev string, st domain.PlaybackState) string {
	if st.CurrentTrack == nil {
		return ""
	}
	key := string(st.CurrentTrack.Source) + ":" + st.CurrentTrack.SourceID
	if key == prev {
		return prev
	}

	e.logger.Info("Now playing",
		zap.String("track", st.CurrentTrack.Title),
		zap.String("artist", st.CurrentTrack.Artist),
		zap.String("album", st.CurrentTrack.Album),
		zap.Int("queued", len(st.Queue)))
	return key
}

// logChannelFullWarning logs a warning about channel being full, but rate-limited
// to avoid log spam during rapid position updates
func (e *Engine) logChannelFullWarning() {
	e.mu.Lock()
	defer e.mu.Unlock()

	const warningInterval = 5 * time.Second
	now := time.Now()

	if now.Sub(e.lastDropWarning) >= warningInterval {
		e.logger.Warn("State channel full, dropping update")
		e.lastDropWarning = now
	}
}
