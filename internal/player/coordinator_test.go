package player

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/streamly/internal/domain"
	"github.com/genricoloni/streamly/internal/domain/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSubscription domain.SubscriptionID = 7

var (
	trackA = domain.Track{ID: "a", Source: domain.SourceFile, SourceID: "/music/a.wav", Title: "Intro", Artist: "The Band"}
	trackB = domain.Track{ID: "b", Source: domain.SourceFile, SourceID: "/music/b.wav", Title: "Outro", Artist: "The Band"}
	trackC = domain.Track{ID: "c", Source: domain.SourceHTTP, SourceID: "http://example.com/c.mp3", Title: "Encore"}
)

type harness struct {
	audio  *mocks.MockAudioService
	coord  *Coordinator
	notify domain.StatusListener
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithLogger(t, zap.NewNop())
}

func newHarnessWithLogger(t *testing.T, logger *zap.Logger) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	h := &harness{audio: mocks.NewMockAudioService(ctrl)}
	h.audio.EXPECT().Subscribe(gomock.Any()).DoAndReturn(func(l domain.StatusListener) domain.SubscriptionID {
		h.notify = l
		return testSubscription
	})
	h.coord = NewCoordinator(logger, h.audio)
	if h.notify == nil {
		t.Fatal("coordinator did not subscribe to the audio service")
	}
	return h
}

// loaded brings the coordinator to a paused, loaded track
func (h *harness) loaded(t *testing.T, track domain.Track, duration float64) {
	t.Helper()
	h.audio.EXPECT().LoadTrack(gomock.Any(), track).DoAndReturn(func(context.Context, domain.Track) error {
		h.notify(domain.AudioStatus{IsLoaded: true, Duration: duration, Volume: 1, Rate: 1})
		return nil
	})
	h.coord.LoadTrack(context.Background(), track)
	if got := h.coord.State().CurrentTrack; got == nil || got.ID != track.ID {
		t.Fatalf("CurrentTrack = %v, want %q", got, track.ID)
	}
}

func (h *harness) playing(position, duration float64) {
	h.notify(domain.AudioStatus{IsPlaying: true, IsLoaded: true, Position: position, Duration: duration, Volume: 1, Rate: 1})
}

func TestCoordinator_InitialState(t *testing.T) {
	h := newHarness(t)
	st := h.coord.State()

	if st.CurrentTrack != nil || st.IsPlaying || len(st.Queue) != 0 {
		t.Errorf("unexpected initial state: %+v", st)
	}
	if st.Volume != 1 || st.Rate != 1 {
		t.Errorf("Volume/Rate = %v/%v, want 1/1", st.Volume, st.Rate)
	}
	if st.Err != nil {
		t.Errorf("Err = %v, want nil", st.Err)
	}
}

func TestCoordinator_LoadTrack(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)

		st := h.coord.State()
		if st.IsLoading {
			t.Error("IsLoading should be false after load")
		}
		if st.IsPlaying {
			t.Error("LoadTrack must not start playback")
		}
		if st.Duration != 200 {
			t.Errorf("Duration = %v, want 200", st.Duration)
		}
	})

	t.Run("Loading flag while in flight", func(t *testing.T) {
		h := newHarness(t)
		var during domain.PlaybackState
		h.audio.EXPECT().LoadTrack(gomock.Any(), trackA).DoAndReturn(func(context.Context, domain.Track) error {
			during = h.coord.State()
			return nil
		})
		h.coord.LoadTrack(context.Background(), trackA)

		if !during.IsLoading {
			t.Error("IsLoading should be true while the audio service loads")
		}
		if h.coord.State().IsLoading {
			t.Error("IsLoading should be cleared after load")
		}
	})

	t.Run("Failure keeps current track", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)

		h.audio.EXPECT().LoadTrack(gomock.Any(), trackB).Return(errors.New("unsupported source"))
		h.coord.LoadTrack(context.Background(), trackB)

		st := h.coord.State()
		if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
			t.Errorf("CurrentTrack = %v, want %q", st.CurrentTrack, trackA.ID)
		}
		if st.Err == nil || st.Err.Op != "load" {
			t.Fatalf("Err = %v, want load error", st.Err)
		}
		if st.Err.Message != "unsupported source" {
			t.Errorf("Err.Message = %q", st.Err.Message)
		}
		if st.IsLoading {
			t.Error("IsLoading should be false after a failed load")
		}
	})

	t.Run("New load clears previous error", func(t *testing.T) {
		h := newHarness(t)
		h.audio.EXPECT().LoadTrack(gomock.Any(), trackB).Return(errors.New("missing"))
		h.coord.LoadTrack(context.Background(), trackB)
		if h.coord.State().Err == nil {
			t.Fatal("expected error after failed load")
		}

		h.loaded(t, trackA, 10)
		if err := h.coord.State().Err; err != nil {
			t.Errorf("Err = %v, want nil", err)
		}
	})
}

func TestCoordinator_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("Loads then starts the given track", func(t *testing.T) {
		h := newHarness(t)
		gomock.InOrder(
			h.audio.EXPECT().LoadTrack(gomock.Any(), trackA).Return(nil),
			h.audio.EXPECT().Play(gomock.Any()).DoAndReturn(func(context.Context) error {
				h.playing(0, 200)
				return nil
			}),
		)
		track := trackA
		h.coord.Play(ctx, &track)

		st := h.coord.State()
		if !st.IsPlaying {
			t.Error("expected playing")
		}
		if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
			t.Errorf("CurrentTrack = %v", st.CurrentTrack)
		}
	})

	t.Run("Load failure skips play", func(t *testing.T) {
		h := newHarness(t)
		h.audio.EXPECT().LoadTrack(gomock.Any(), trackC).Return(errors.New("network down"))
		track := trackC
		h.coord.Play(ctx, &track)

		st := h.coord.State()
		if st.CurrentTrack != nil || st.IsPlaying {
			t.Errorf("unexpected state after failed load: %+v", st)
		}
		if st.Err == nil || st.Err.Op != "load" {
			t.Errorf("Err = %v, want load error", st.Err)
		}
	})

	t.Run("Resume without track is a no-op", func(t *testing.T) {
		h := newHarness(t)
		h.coord.Play(ctx, nil)

		if st := h.coord.State(); st.IsPlaying || st.Err != nil {
			t.Errorf("unexpected state: %+v", st)
		}
	})

	t.Run("Resume current track", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.audio.EXPECT().Play(gomock.Any()).Return(nil)
		h.coord.Play(ctx, nil)
	})

	t.Run("Play failure recorded", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.audio.EXPECT().Play(gomock.Any()).Return(errors.New("device busy"))
		h.coord.Play(ctx, nil)

		st := h.coord.State()
		if st.Err == nil || st.Err.Op != "play" {
			t.Errorf("Err = %v, want play error", st.Err)
		}
		if st.CurrentTrack == nil {
			t.Error("current track lost on play failure")
		}
	})
}

func TestCoordinator_Pause(t *testing.T) {
	ctx := context.Background()

	t.Run("Twice while paused", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.audio.EXPECT().Pause(gomock.Any()).Times(2).DoAndReturn(func(context.Context) error {
			h.notify(domain.AudioStatus{IsLoaded: true, Position: 12, Duration: 200, Volume: 1, Rate: 1})
			return nil
		})

		h.coord.Pause(ctx)
		h.coord.Pause(ctx)

		st := h.coord.State()
		if st.IsPlaying {
			t.Error("expected paused")
		}
		if st.Err != nil {
			t.Errorf("Err = %v, want nil", st.Err)
		}
	})

	t.Run("Without track does not reach audio", func(t *testing.T) {
		h := newHarness(t)
		h.coord.Pause(ctx)
		if st := h.coord.State(); st.Err != nil {
			t.Errorf("Err = %v, want nil", st.Err)
		}
	})

	t.Run("Failure recorded", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.audio.EXPECT().Pause(gomock.Any()).Return(errors.New("no track loaded"))
		h.coord.Pause(ctx)

		if err := h.coord.State().Err; err == nil || err.Op != "pause" {
			t.Errorf("Err = %v, want pause error", err)
		}
	})
}

func TestCoordinator_TogglePlayback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.loaded(t, trackA, 200)

	gomock.InOrder(
		h.audio.EXPECT().Play(gomock.Any()).DoAndReturn(func(context.Context) error {
			h.playing(0, 200)
			return nil
		}),
		h.audio.EXPECT().Pause(gomock.Any()).DoAndReturn(func(context.Context) error {
			h.notify(domain.AudioStatus{IsLoaded: true, Position: 1, Duration: 200, Volume: 1, Rate: 1})
			return nil
		}),
	)

	h.coord.TogglePlayback(ctx)
	if !h.coord.State().IsPlaying {
		t.Fatal("expected playing after first toggle")
	}
	h.coord.TogglePlayback(ctx)
	if h.coord.State().IsPlaying {
		t.Fatal("expected paused after second toggle")
	}
}

func TestCoordinator_Stop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.loaded(t, trackA, 200)
	h.playing(30, 200)

	h.audio.EXPECT().Stop(gomock.Any()).Return(nil)
	h.coord.Stop(ctx)

	st := h.coord.State()
	if st.IsPlaying || st.Position != 0 {
		t.Errorf("IsPlaying=%v Position=%v, want false/0", st.IsPlaying, st.Position)
	}
	if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
		t.Errorf("Stop must keep the current track, got %v", st.CurrentTrack)
	}
}

func TestCoordinator_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("Pops queue head", func(t *testing.T) {
		h := newHarness(t)
		h.coord.AddToQueue(trackA)
		h.coord.AddToQueue(trackB)

		gomock.InOrder(
			h.audio.EXPECT().LoadTrack(gomock.Any(), trackA).Return(nil),
			h.audio.EXPECT().Play(gomock.Any()).Return(nil),
		)
		h.coord.Next(ctx)

		st := h.coord.State()
		if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
			t.Fatalf("CurrentTrack = %v, want %q", st.CurrentTrack, trackA.ID)
		}
		if len(st.Queue) != 1 || st.Queue[0].ID != trackB.ID {
			t.Errorf("Queue = %v, want [%s]", st.Queue, trackB.ID)
		}
	})

	t.Run("Empty queue stops playback", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.playing(42, 200)

		h.audio.EXPECT().Stop(gomock.Any()).Return(nil)
		h.coord.Next(ctx)

		st := h.coord.State()
		if st.IsPlaying {
			t.Error("expected not playing")
		}
		if st.Position != 0 {
			t.Errorf("Position = %v, want 0", st.Position)
		}
		if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
			t.Errorf("CurrentTrack = %v, want %q", st.CurrentTrack, trackA.ID)
		}
	})

	t.Run("Empty queue without track", func(t *testing.T) {
		h := newHarness(t)
		h.coord.Next(ctx)
		if st := h.coord.State(); st.IsPlaying || st.Err != nil {
			t.Errorf("unexpected state: %+v", st)
		}
	})

	t.Run("Failed head is consumed", func(t *testing.T) {
		h := newHarness(t)
		h.coord.Enqueue(trackC, trackB)

		h.audio.EXPECT().LoadTrack(gomock.Any(), trackC).Return(errors.New("unsupported source"))
		h.coord.Next(ctx)

		st := h.coord.State()
		if st.CurrentTrack != nil {
			t.Errorf("CurrentTrack = %v, want nil", st.CurrentTrack)
		}
		if len(st.Queue) != 1 || st.Queue[0].ID != trackB.ID {
			t.Errorf("Queue = %v, want [%s]", st.Queue, trackB.ID)
		}
		if st.Err == nil {
			t.Error("expected load error")
		}
	})
}

func TestCoordinator_Previous(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		position float64
	}{
		{name: "Past restart threshold", position: 10},
		{name: "Near start", position: 1.5},
		{name: "At start", position: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.loaded(t, trackA, 200)
			h.playing(tt.position, 200)

			h.audio.EXPECT().Seek(gomock.Any(), 0.0).Return(nil)
			h.coord.Previous(ctx)

			st := h.coord.State()
			if st.CurrentTrack == nil || st.CurrentTrack.ID != trackA.ID {
				t.Errorf("Previous changed the current track: %v", st.CurrentTrack)
			}
		})
	}

	t.Run("Without track", func(t *testing.T) {
		h := newHarness(t)
		h.coord.Previous(ctx)
	})

	t.Run("Seek failure recorded", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.audio.EXPECT().Seek(gomock.Any(), 0.0).Return(errors.New("not seekable"))
		h.coord.Previous(ctx)

		if err := h.coord.State().Err; err == nil || err.Op != "previous" {
			t.Errorf("Err = %v, want previous error", err)
		}
	})
}

func TestCoordinator_Seek(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "Within track", in: 42.5, want: 42.5},
		{name: "Negative clamps to start", in: -3, want: 0},
		{name: "Beyond duration clamps to end", in: 250, want: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.loaded(t, trackA, 200)
			h.audio.EXPECT().Seek(gomock.Any(), tt.want).Return(nil)
			h.coord.Seek(ctx, tt.in)
		})
	}

	t.Run("NaN rejected", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)
		h.coord.Seek(ctx, math.NaN())
		if err := h.coord.State().Err; err == nil || err.Op != "seek" {
			t.Errorf("Err = %v, want seek error", err)
		}
	})

	t.Run("Failure recorded", func(t *testing.T) {
		h := newHarness(t)
		h.audio.EXPECT().Seek(gomock.Any(), 5.0).Return(errors.New("no track loaded"))
		h.coord.Seek(ctx, 5)
		if err := h.coord.State().Err; err == nil || err.Message != "no track loaded" {
			t.Errorf("Err = %v", err)
		}
	})
}

func TestCoordinator_SetVolume(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "Below range", in: -0.5, want: 0},
		{name: "Above range", in: 1.5, want: 1},
		{name: "In range", in: 0.4, want: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.audio.EXPECT().SetVolume(gomock.Any(), tt.want).DoAndReturn(func(_ context.Context, v float64) error {
				h.notify(domain.AudioStatus{Volume: v, Rate: 1})
				return nil
			})
			h.coord.SetVolume(ctx, tt.in)

			got := h.coord.State().Volume
			if got != tt.want {
				t.Errorf("Volume = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Volume %v out of range", got)
			}
		})
	}

	t.Run("NaN rejected", func(t *testing.T) {
		h := newHarness(t)
		h.coord.SetVolume(ctx, math.NaN())
		st := h.coord.State()
		if st.Err == nil || st.Err.Op != "volume" {
			t.Errorf("Err = %v, want volume error", st.Err)
		}
		if st.Volume != 1 {
			t.Errorf("Volume = %v, want unchanged 1", st.Volume)
		}
	})

	t.Run("Notification during call wins", func(t *testing.T) {
		h := newHarness(t)
		h.audio.EXPECT().SetVolume(gomock.Any(), 0.3).DoAndReturn(func(context.Context, float64) error {
			h.notify(domain.AudioStatus{Volume: 0.7, Rate: 1})
			return nil
		})
		h.coord.SetVolume(ctx, 0.3)

		if got := h.coord.State().Volume; got != 0.7 {
			t.Errorf("Volume = %v, want 0.7", got)
		}
	})
}

func TestCoordinator_SetRate(t *testing.T) {
	ctx := context.Background()

	invalid := []float64{0, -1, math.NaN(), math.Inf(1)}
	for _, r := range invalid {
		h := newHarness(t)
		h.coord.SetRate(ctx, r)
		if err := h.coord.State().Err; err == nil || err.Op != "rate" {
			t.Errorf("SetRate(%v): Err = %v, want rate error", r, err)
		}
	}

	h := newHarness(t)
	h.audio.EXPECT().SetRate(gomock.Any(), 1.5).DoAndReturn(func(_ context.Context, r float64) error {
		h.notify(domain.AudioStatus{Volume: 1, Rate: r})
		return nil
	})
	h.coord.SetRate(ctx, 1.5)
	if got := h.coord.State().Rate; got != 1.5 {
		t.Errorf("Rate = %v, want 1.5", got)
	}
}

func TestCoordinator_SetLooping(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	gomock.InOrder(
		h.audio.EXPECT().SetLooping(gomock.Any(), true).DoAndReturn(func(context.Context, bool) error {
			h.notify(domain.AudioStatus{Volume: 1, Rate: 1, IsLooping: true})
			return nil
		}),
		h.audio.EXPECT().SetLooping(gomock.Any(), false).Return(errors.New("device lost")),
	)

	h.coord.SetLooping(ctx, true)
	if !h.coord.State().IsLooping {
		t.Error("expected looping")
	}

	h.coord.SetLooping(ctx, false)
	st := h.coord.State()
	if st.Err == nil || st.Err.Op != "loop" {
		t.Errorf("Err = %v, want loop error", st.Err)
	}
	if !st.IsLooping {
		t.Error("failed SetLooping must leave IsLooping unchanged")
	}
}

func TestCoordinator_QueueOperations(t *testing.T) {
	ids := func(q []domain.Track) []string {
		out := make([]string, 0, len(q))
		for _, tr := range q {
			out = append(out, tr.ID)
		}
		return out
	}
	equal := func(a, b []string) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	tests := []struct {
		name string
		ops  func(c *Coordinator)
		want []string
	}{
		{
			name: "Append keeps order",
			ops: func(c *Coordinator) {
				c.AddToQueue(trackA)
				c.AddToQueue(trackB)
				c.AddToQueue(trackC)
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "Remove middle",
			ops: func(c *Coordinator) {
				c.Enqueue(trackA, trackB, trackC)
				c.RemoveFromQueue(1)
			},
			want: []string{"a", "c"},
		},
		{
			name: "Remove out of range is ignored",
			ops: func(c *Coordinator) {
				c.Enqueue(trackA, trackB)
				c.RemoveFromQueue(-1)
				c.RemoveFromQueue(2)
			},
			want: []string{"a", "b"},
		},
		{
			name: "Clear",
			ops: func(c *Coordinator) {
				c.Enqueue(trackA, trackB)
				c.ClearQueue()
			},
			want: []string{},
		},
		{
			name: "Duplicates allowed",
			ops: func(c *Coordinator) {
				c.AddToQueue(trackA)
				c.AddToQueue(trackA)
			},
			want: []string{"a", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.ops(h.coord)
			if got := ids(h.coord.State().Queue); !equal(got, tt.want) {
				t.Errorf("Queue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoordinator_StateIsACopy(t *testing.T) {
	h := newHarness(t)
	h.coord.Enqueue(trackA)

	st := h.coord.State()
	st.Queue[0].Title = "mutated"
	st.Volume = 0

	again := h.coord.State()
	if again.Queue[0].Title != trackA.Title || again.Volume != 1 {
		t.Errorf("State leaked internal storage: %+v", again)
	}
}

func TestCoordinator_Reconcile(t *testing.T) {
	t.Run("Playing requires a track", func(t *testing.T) {
		h := newHarness(t)
		h.playing(15, 100)

		st := h.coord.State()
		if st.IsPlaying || st.Position != 0 {
			t.Errorf("IsPlaying=%v Position=%v without a track", st.IsPlaying, st.Position)
		}
	})

	t.Run("Notification replaces derived fields", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 200)

		h.notify(domain.AudioStatus{
			IsPlaying:   true,
			IsLoaded:    false,
			IsBuffering: true,
			Position:    9,
			Duration:    180,
			Volume:      0.25,
			Rate:        2,
			IsLooping:   true,
			Error:       "stall",
		})

		st := h.coord.State()
		if !st.IsPlaying || !st.IsLoading || !st.IsBuffering || !st.IsLooping {
			t.Errorf("flags not replaced: %+v", st)
		}
		if st.Position != 9 || st.Duration != 180 || st.Volume != 0.25 || st.Rate != 2 {
			t.Errorf("values not replaced: %+v", st)
		}
		if st.Err == nil || st.Err.Message != "stall" {
			t.Errorf("Err = %v, want stall", st.Err)
		}

		h.playing(10, 180)
		if err := h.coord.State().Err; err != nil {
			t.Errorf("Err = %v, want cleared by next notification", err)
		}
	})

	t.Run("Out of range volume is clamped", func(t *testing.T) {
		h := newHarness(t)
		h.notify(domain.AudioStatus{Volume: 3, Rate: 1})
		if got := h.coord.State().Volume; got != 1 {
			t.Errorf("Volume = %v, want 1", got)
		}
	})

	t.Run("Finish flag passes through", func(t *testing.T) {
		h := newHarness(t)
		h.loaded(t, trackA, 5)
		h.notify(domain.AudioStatus{IsLoaded: true, Position: 5, Duration: 5, Volume: 1, Rate: 1, DidJustFinish: true})
		if !h.coord.State().DidJustFinish {
			t.Error("expected DidJustFinish")
		}

		// Any later mutation clears the flag
		h.coord.AddToQueue(trackB)
		if h.coord.State().DidJustFinish {
			t.Error("DidJustFinish survived a queue change")
		}
	})
}

func TestCoordinator_Subscribe(t *testing.T) {
	h := newHarness(t)

	var order []string
	var firstStates []domain.PlaybackState
	first := h.coord.Subscribe(func(st domain.PlaybackState) {
		order = append(order, "first")
		firstStates = append(firstStates, st)
	})
	h.coord.Subscribe(func(domain.PlaybackState) {
		order = append(order, "second")
	})

	h.coord.AddToQueue(trackA)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("delivery order = %v", order)
	}
	if len(firstStates[0].Queue) != 1 {
		t.Errorf("listener saw queue %v", firstStates[0].Queue)
	}

	h.coord.Unsubscribe(first)
	h.coord.ClearQueue()
	if len(firstStates) != 1 {
		t.Errorf("unsubscribed listener called %d times", len(firstStates))
	}
	if len(order) != 3 {
		t.Errorf("remaining listener calls = %d, want 3 entries", len(order))
	}
}

func TestCoordinator_SlowListenerSeesEverySnapshot(t *testing.T) {
	h := newHarness(t)
	h.loaded(t, trackA, 5)

	release := make(chan struct{})
	blocked := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []domain.PlaybackState
	)
	h.coord.Subscribe(func(st domain.PlaybackState) {
		mu.Lock()
		first := len(seen) == 0
		seen = append(seen, st)
		mu.Unlock()
		if first {
			close(blocked)
			<-release
		}
	})

	waitUntil := func(what string, cond func(domain.PlaybackState) bool) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !cond(h.coord.State()) {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(time.Millisecond)
		}
	}

	var wg sync.WaitGroup
	wg.Add(3)
	// A position tick occupies the listener
	go func() {
		defer wg.Done()
		h.playing(4, 5)
	}()
	<-blocked

	// The end of the track and a queue change land while it is busy
	go func() {
		defer wg.Done()
		h.notify(domain.AudioStatus{IsLoaded: true, Position: 5, Duration: 5, Volume: 1, Rate: 1, DidJustFinish: true})
	}()
	waitUntil("finish", func(st domain.PlaybackState) bool { return st.DidJustFinish })

	go func() {
		defer wg.Done()
		h.coord.AddToQueue(trackB)
	}()
	waitUntil("queue change", func(st domain.PlaybackState) bool { return len(st.Queue) == 1 })

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("listener saw %d snapshots, want 3", len(seen))
	}
	if seen[0].Position != 4 || seen[0].DidJustFinish {
		t.Errorf("first snapshot = %+v, want the position tick", seen[0])
	}
	if !seen[1].DidJustFinish {
		t.Error("finish snapshot was not delivered")
	}
	if seen[2].DidJustFinish || len(seen[2].Queue) != 1 {
		t.Errorf("last snapshot = %+v, want the queue change without the finish flag", seen[2])
	}
}

func TestCoordinator_Close(t *testing.T) {
	h := newHarness(t)
	h.audio.EXPECT().Unsubscribe(testSubscription)
	if err := h.coord.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestCoordinator_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHarnessWithLogger(t, zap.New(core))

	h.loaded(t, trackA, 200)
	h.audio.EXPECT().Pause(gomock.Any()).Return(errors.New("device lost"))
	h.coord.Pause(context.Background())

	entries := logs.FilterMessage("Playback intent failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d failure entries, want 1", len(entries))
	}
	if op := entries[0].ContextMap()["op"]; op != "pause" {
		t.Errorf("op field = %v, want pause", op)
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", entries[0].Level)
	}
}
