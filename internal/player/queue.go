package player

import (
	"fmt"

	"github.com/genricoloni/streamly/internal/domain"
	"go.uber.org/zap"
)

// AddToQueue appends track to the queue tail
func (c *Coordinator) AddToQueue(track domain.Track) {
	c.Enqueue(track)
}

// Enqueue appends tracks in order
func (c *Coordinator) Enqueue(tracks ...domain.Track) {
	if len(tracks) == 0 {
		return
	}
	c.update(func(s *domain.PlaybackState) {
		s.Queue = append(s.Queue, tracks...)
	})
	c.logger.Debug("Queued tracks", zap.Int("count", len(tracks)))
}

// RemoveFromQueue drops the entry at index; out-of-range indexes are ignored
func (c *Coordinator) RemoveFromQueue(index int) {
	c.update(func(s *domain.PlaybackState) {
		if index < 0 || index >= len(s.Queue) {
			return
		}
		q := make([]domain.Track, 0, len(s.Queue)-1)
		q = append(q, s.Queue[:index]...)
		s.Queue = append(q, s.Queue[index+1:]...)
	})
}

// ClearQueue empties the queue
func (c *Coordinator) ClearQueue() {
	c.update(func(s *domain.PlaybackState) {
		s.Queue = nil
	})
}

func errInvalid(what string, v float64) error {
	return fmt.Errorf("invalid %s %v", what, v)
}
