// Package mpris publishes the player on the session bus as an MPRIS2 media player,
// so desktop media keys, applets and playerctl can drive it.
package mpris

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/genricoloni/streamly/internal/domain"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

const (
	// BusName is the well-known name we own on the session bus
	BusName = "org.mpris.MediaPlayer2.streamly"
	// ObjectPath is where both MPRIS interfaces are served
	ObjectPath = dbus.ObjectPath("/org/mpris/MediaPlayer2")

	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"

	identity     = "Streamly"
	minRate      = 0.25
	maxRate      = 4.0
	intentBuffer = 16
)

// Controller is the playback surface the bridge drives
type Controller interface {
	State() domain.PlaybackState
	Subscribe(listener domain.StateListener) domain.SubscriptionID
	Unsubscribe(id domain.SubscriptionID)

	Play(ctx context.Context, track *domain.Track)
	Pause(ctx context.Context)
	TogglePlayback(ctx context.Context)
	Stop(ctx context.Context)
	Next(ctx context.Context)
	Previous(ctx context.Context)
	Seek(ctx context.Context, position float64)
	SetVolume(ctx context.Context, v float64)
	SetRate(ctx context.Context, r float64)
	SetLooping(ctx context.Context, looping bool)
}

// TrackStore records tracks opened from the bus
type TrackStore interface {
	AddTrack(ctx context.Context, track domain.Track) (domain.Track, error)
}

// Bridge exports a Controller over D-Bus.
// Bus calls are turned into intents and run in order on one worker goroutine.
type Bridge struct {
	logger *zap.Logger
	ctrl   Controller
	art    domain.ArtworkResolver
	tracks TrackStore
	dial   func() (BusConn, error)
	quit   func()

	mu              sync.Mutex
	running         bool
	conn            BusConn
	props           PropertySetter
	cancel          context.CancelFunc
	sub             domain.SubscriptionID
	lastDropWarning time.Time
	wg              sync.WaitGroup

	intents chan func(ctx context.Context)
	wake    chan struct{}

	stateMu sync.Mutex
	pending *domain.PlaybackState
	last    domain.PlaybackState
	artKey  string
	artURL  string

	// published is only touched by the worker
	published map[string]any
}

// NewBridge creates a bridge; art and tracks may be nil
func NewBridge(logger *zap.Logger, ctrl Controller, art domain.ArtworkResolver, tracks TrackStore) *Bridge {
	return &Bridge{
		logger: logger,
		ctrl:   ctrl,
		art:    art,
		tracks: tracks,
		dial: func() (BusConn, error) {
			conn, err := NewStdBusConn()
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		intents:   make(chan func(ctx context.Context), intentBuffer),
		wake:      make(chan struct{}, 1),
		published: make(map[string]any),
	}
}

// SetQuit installs the handler behind the MPRIS Quit method and enables CanQuit
func (b *Bridge) SetQuit(quit func()) {
	b.quit = quit
}

// Start connects to the session bus, exports the player and claims BusName.
// It returns immediately.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	conn, err := b.dial()
	if err != nil {
		b.logger.Error("Failed to connect to session bus", zap.Error(err))
		return fmt.Errorf("session bus connection failed: %w", err)
	}

	st := b.ctrl.State()
	props, err := b.export(conn, st)
	if err != nil {
		_ = conn.Close()
		return err
	}

	owned, err := conn.RequestName(BusName)
	if err != nil {
		_ = conn.Close()
		return err
	}
	if !owned {
		_ = conn.Close()
		return fmt.Errorf("bus name %s is owned by another process", BusName)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.conn = conn
	b.props = props
	b.cancel = cancel
	b.running = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run(runCtx)

	b.sub = b.ctrl.Subscribe(b.onState)
	b.onState(b.ctrl.State())

	b.logger.Info("MPRIS bridge started", zap.String("name", BusName))
	return nil
}

// Stop releases the bus name and waits for in-flight work
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.cancel()
	conn := b.conn
	b.mu.Unlock()

	b.ctrl.Unsubscribe(b.sub)

	b.logger.Debug("Waiting for MPRIS goroutines to finish")
	b.wg.Wait()

	err := conn.Close()
	if err != nil {
		b.logger.Warn("Failed to close D-Bus connection", zap.Error(err))
	}
	b.logger.Info("MPRIS bridge stopped")
	return err
}

// export serves properties, both MPRIS interfaces and introspection data
func (b *Bridge) export(conn BusConn, st domain.PlaybackState) (PropertySetter, error) {
	props, err := conn.ExportProperties(ObjectPath, b.propertyMap(st))
	if err != nil {
		return nil, fmt.Errorf("export properties: %w", err)
	}

	root := &rootObject{b: b}
	player := &playerObject{b: b}
	if err := conn.Export(root, ObjectPath, rootIface); err != nil {
		return nil, fmt.Errorf("export %s: %w", rootIface, err)
	}
	if err := conn.Export(player, ObjectPath, playerIface); err != nil {
		return nil, fmt.Errorf("export %s: %w", playerIface, err)
	}

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(rootIface),
			},
			{
				Name:       playerIface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(playerIface),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}
	return props, nil
}

// propertyMap is the initial property table
func (b *Bridge) propertyMap(st domain.PlaybackState) prop.Map {
	constant := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Emit: prop.EmitConst}
	}
	emitted := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Emit: prop.EmitTrue}
	}

	return prop.Map{
		rootIface: {
			"Identity":            constant(identity),
			"CanQuit":             constant(b.quit != nil),
			"CanRaise":            constant(false),
			"HasTrackList":        constant(false),
			"SupportedUriSchemes": constant([]string{"file", "http", "https"}),
			"SupportedMimeTypes":  constant([]string{"audio/mpeg", "audio/wav", "audio/x-wav"}),
		},
		playerIface: {
			"PlaybackStatus": emitted(playbackStatus(st)),
			"LoopStatus":     {Value: loopStatus(st.IsLooping), Writable: true, Emit: prop.EmitTrue, Callback: b.onLoopStatus},
			"Rate":           {Value: st.Rate, Writable: true, Emit: prop.EmitTrue, Callback: b.onRate},
			"Metadata":       emitted(metadata(st, "")),
			"Volume":         {Value: st.Volume, Writable: true, Emit: prop.EmitTrue, Callback: b.onVolume},
			"Position":       {Value: toMicros(st.Position), Emit: prop.EmitFalse},
			"MinimumRate":    constant(minRate),
			"MaximumRate":    constant(maxRate),
			"CanGoNext":      emitted(len(st.Queue) > 0),
			"CanGoPrevious":  emitted(st.CurrentTrack != nil),
			"CanPlay":        emitted(st.CurrentTrack != nil || len(st.Queue) > 0),
			"CanPause":       emitted(st.CurrentTrack != nil),
			"CanSeek":        emitted(st.CurrentTrack != nil && st.Duration > 0),
			"CanControl":     constant(true),
		},
	}
}

// run executes intents and state publications in order
func (b *Bridge) run(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-b.intents:
			fn(ctx)
		case <-b.wake:
			b.stateMu.Lock()
			st := b.pending
			b.pending = nil
			b.stateMu.Unlock()
			if st != nil {
				b.apply(ctx, *st)
			}
		}
	}
}

// do queues an intent for the worker, dropping it when the queue is full
func (b *Bridge) do(op string, fn func(ctx context.Context)) {
	select {
	case b.intents <- fn:
		b.logger.Debug("MPRIS call queued", zap.String("op", op))
	default:
		b.logDropWarning(op)
	}
}

// onState records the newest state; it runs on the coordinator's goroutine
func (b *Bridge) onState(st domain.PlaybackState) {
	b.stateMu.Lock()
	b.pending = &st
	b.stateMu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// apply writes the state to the exported properties
func (b *Bridge) apply(ctx context.Context, st domain.PlaybackState) {
	artURL := b.trackArt(ctx, st)

	b.set(playerIface, "PlaybackStatus", playbackStatus(st))
	b.set(playerIface, "LoopStatus", loopStatus(st.IsLooping))
	b.set(playerIface, "Rate", st.Rate)
	b.set(playerIface, "Volume", st.Volume)
	b.set(playerIface, "Metadata", metadata(st, artURL))
	b.set(playerIface, "Position", toMicros(st.Position))
	b.set(playerIface, "CanGoNext", len(st.Queue) > 0)
	b.set(playerIface, "CanGoPrevious", st.CurrentTrack != nil)
	b.set(playerIface, "CanPlay", st.CurrentTrack != nil || len(st.Queue) > 0)
	b.set(playerIface, "CanPause", st.CurrentTrack != nil)
	b.set(playerIface, "CanSeek", st.CurrentTrack != nil && st.Duration > 0)
}

// set writes a property when its value changed
func (b *Bridge) set(iface, name string, v any) {
	key := iface + "." + name
	if old, ok := b.published[key]; ok && reflect.DeepEqual(old, v) {
		return
	}
	b.published[key] = v
	b.props.SetMust(iface, name, v)
}

// resync republishes a writable property from the controller's state.
// prop has already stored the value the client wrote, which the controller
// may have clamped or ignored, so the cached value no longer matches the bus.
// SetMust waits on prop's lock, so this write lands after the client's.
func (b *Bridge) resync(name string) {
	st := b.ctrl.State()
	delete(b.published, playerIface+"."+name)
	switch name {
	case "LoopStatus":
		b.set(playerIface, name, loopStatus(st.IsLooping))
	case "Rate":
		b.set(playerIface, name, st.Rate)
	case "Volume":
		b.set(playerIface, name, st.Volume)
	}
}

// trackArt returns the cover URL for the current track, starting a lookup on track change
func (b *Bridge) trackArt(ctx context.Context, st domain.PlaybackState) string {
	thumb := ""
	if st.CurrentTrack != nil {
		thumb = st.CurrentTrack.ThumbnailURL
	}

	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.last = st

	if thumb == b.artKey {
		return b.artURL
	}
	b.artKey = thumb
	b.artURL = ""
	if thumb == "" || b.art == nil {
		return ""
	}

	track := *st.CurrentTrack
	b.wg.Add(1)
	go b.resolveArt(ctx, track)
	return ""
}

// resolveArt renders the cover off the worker and republishes the metadata
func (b *Bridge) resolveArt(ctx context.Context, track domain.Track) {
	defer b.wg.Done()

	artURL, err := b.art.Resolve(ctx, track)
	if err != nil {
		b.logger.Warn("Failed to resolve artwork", zap.String("track", track.Title), zap.Error(err))
		return
	}

	b.stateMu.Lock()
	if b.artKey != track.ThumbnailURL {
		b.stateMu.Unlock()
		return
	}
	b.artURL = artURL
	last := b.last
	b.stateMu.Unlock()

	b.onState(last)
}

// emitSeeked announces a position jump
func (b *Bridge) emitSeeked(position float64) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	if err := conn.Emit(ObjectPath, playerIface+".Seeked", toMicros(position)); err != nil {
		b.logger.Warn("Failed to emit Seeked", zap.Error(err))
	}
}

// logDropWarning is rate-limited to one warning per 5 seconds
func (b *Bridge) logDropWarning(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	const warningInterval = 5 * time.Second
	now := time.Now()
	if now.Sub(b.lastDropWarning) >= warningInterval {
		b.logger.Warn("MPRIS intent queue full, dropping call", zap.String("op", op))
		b.lastDropWarning = now
	}
}
