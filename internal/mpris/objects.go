package mpris

import (
	"context"
	"fmt"

	"github.com/genricoloni/streamly/internal/source"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"
)

func invalidArgs(format string, args ...any) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{fmt.Sprintf(format, args...)})
}

// rootObject serves org.mpris.MediaPlayer2
type rootObject struct {
	b *Bridge
}

// Raise is a no-op: there is no window to show
func (r *rootObject) Raise() *dbus.Error {
	return nil
}

// Quit asks the application to shut down
func (r *rootObject) Quit() *dbus.Error {
	if r.b.quit == nil {
		return dbus.MakeFailedError(fmt.Errorf("quit is not supported"))
	}
	r.b.logger.Info("Quit requested over D-Bus")
	r.b.quit()
	return nil
}

// playerObject serves org.mpris.MediaPlayer2.Player
type playerObject struct {
	b *Bridge
}

func (p *playerObject) Next() *dbus.Error {
	p.b.do("next", p.b.ctrl.Next)
	return nil
}

func (p *playerObject) Previous() *dbus.Error {
	p.b.do("previous", func(ctx context.Context) {
		p.b.ctrl.Previous(ctx)
		if st := p.b.ctrl.State(); st.CurrentTrack != nil {
			p.b.emitSeeked(st.Position)
		}
	})
	return nil
}

func (p *playerObject) Pause() *dbus.Error {
	p.b.do("pause", p.b.ctrl.Pause)
	return nil
}

func (p *playerObject) PlayPause() *dbus.Error {
	p.b.do("playpause", p.b.ctrl.TogglePlayback)
	return nil
}

func (p *playerObject) Stop() *dbus.Error {
	p.b.do("stop", p.b.ctrl.Stop)
	return nil
}

// Play resumes the current track, or starts the queue when nothing is loaded
func (p *playerObject) Play() *dbus.Error {
	p.b.do("play", func(ctx context.Context) {
		st := p.b.ctrl.State()
		if st.CurrentTrack == nil && len(st.Queue) > 0 {
			p.b.ctrl.Next(ctx)
			return
		}
		p.b.ctrl.Play(ctx, nil)
	})
	return nil
}

// Seek moves by offset microseconds; seeking past the end skips to the next track
func (p *playerObject) Seek(offset int64) *dbus.Error {
	p.b.do("seek", func(ctx context.Context) {
		st := p.b.ctrl.State()
		if st.CurrentTrack == nil {
			return
		}
		target := st.Position + fromMicros(offset)
		if target < 0 {
			target = 0
		}
		if st.Duration > 0 && target > st.Duration {
			p.b.ctrl.Next(ctx)
			return
		}
		p.b.ctrl.Seek(ctx, target)
		p.b.emitSeeked(p.b.ctrl.State().Position)
	})
	return nil
}

// SetPosition moves to an absolute position if trackID is still the current track
func (p *playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	p.b.do("setposition", func(ctx context.Context) {
		st := p.b.ctrl.State()
		if st.CurrentTrack == nil || trackPath(st.CurrentTrack) != trackID {
			p.b.logger.Debug("Ignoring SetPosition for stale track", zap.String("trackid", string(trackID)))
			return
		}
		target := fromMicros(position)
		if target < 0 || (st.Duration > 0 && target > st.Duration) {
			return
		}
		p.b.ctrl.Seek(ctx, target)
		p.b.emitSeeked(p.b.ctrl.State().Position)
	})
	return nil
}

// OpenUri plays a file or http(s) URI, recording it in the library
func (p *playerObject) OpenUri(uri string) *dbus.Error {
	track, err := source.TrackFromURI(uri)
	if err != nil {
		return invalidArgs("%v", err)
	}

	p.b.do("openuri", func(ctx context.Context) {
		if p.b.tracks != nil {
			stored, err := p.b.tracks.AddTrack(ctx, track)
			if err != nil {
				p.b.logger.Warn("Failed to record opened track", zap.String("uri", uri), zap.Error(err))
			} else {
				track = stored
			}
		}
		p.b.ctrl.Play(ctx, &track)
	})
	return nil
}

func (b *Bridge) onLoopStatus(c *prop.Change) *dbus.Error {
	status, ok := c.Value.(string)
	if !ok {
		return invalidArgs("LoopStatus must be a string")
	}
	var looping bool
	switch status {
	case LoopTrack:
		looping = true
	case LoopNone, LoopPlaylist:
	default:
		return invalidArgs("unknown LoopStatus %q", status)
	}
	b.do("loop", func(ctx context.Context) {
		b.ctrl.SetLooping(ctx, looping)
		b.resync("LoopStatus")
	})
	return nil
}

func (b *Bridge) onRate(c *prop.Change) *dbus.Error {
	rate, ok := c.Value.(float64)
	if !ok {
		return invalidArgs("Rate must be a double")
	}
	if rate <= 0 {
		b.do("pause", func(ctx context.Context) {
			b.ctrl.Pause(ctx)
			b.resync("Rate")
		})
		return nil
	}
	if rate < minRate || rate > maxRate {
		return invalidArgs("Rate %v outside [%v, %v]", rate, minRate, maxRate)
	}
	b.do("rate", func(ctx context.Context) {
		b.ctrl.SetRate(ctx, rate)
		b.resync("Rate")
	})
	return nil
}

func (b *Bridge) onVolume(c *prop.Change) *dbus.Error {
	volume, ok := c.Value.(float64)
	if !ok {
		return invalidArgs("Volume must be a double")
	}
	b.do("volume", func(ctx context.Context) {
		b.ctrl.SetVolume(ctx, volume)
		b.resync("Volume")
	})
	return nil
}
