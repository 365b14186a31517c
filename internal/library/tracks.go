package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/genricoloni/streamly/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const trackColumns = `id, source, source_id, title, artist, album, duration, thumbnail_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (domain.Track, error) {
	var (
		t         domain.Track
		source    string
		artist    sql.NullString
		album     sql.NullString
		thumbnail sql.NullString
		created   int64
	)
	if err := row.Scan(&t.ID, &source, &t.SourceID, &t.Title, &artist, &album, &t.Duration, &thumbnail, &created); err != nil {
		return domain.Track{}, err
	}
	t.Source = domain.SourceType(source)
	t.Artist = artist.String
	t.Album = album.String
	t.ThumbnailURL = thumbnail.String
	t.CreatedAt = time.Unix(created, 0)
	return t, nil
}

// AddTrack stores track and returns the stored row.
// A track is identified by its source and source id: adding a known one
// refreshes its metadata and keeps the original ID.
func (s *Store) AddTrack(ctx context.Context, track domain.Track) (domain.Track, error) {
	if s == nil || s.db == nil {
		return domain.Track{}, errNoDB
	}
	if track.Source == "" || track.SourceID == "" {
		return domain.Track{}, fmt.Errorf("library: track source and source id are required")
	}
	if track.Duration < 0 {
		track.Duration = 0
	}
	if track.Title == "" {
		track.Title = path.Base(track.SourceID)
	}
	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracks (`+trackColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, source_id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			duration=excluded.duration,
			thumbnail_url=excluded.thumbnail_url
	`,
		track.ID,
		string(track.Source),
		track.SourceID,
		track.Title,
		nullString(track.Artist),
		nullString(track.Album),
		track.Duration,
		nullString(track.ThumbnailURL),
		track.CreatedAt.Unix(),
	)
	if err != nil {
		return domain.Track{}, fmt.Errorf("library: add track: %w", err)
	}

	stored, err := scanTrack(s.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE source = ? AND source_id = ?`,
		string(track.Source), track.SourceID))
	if err != nil {
		return domain.Track{}, fmt.Errorf("library: reload track: %w", err)
	}
	s.logger.Debug("Track stored", zap.String("id", stored.ID), zap.String("title", stored.Title))
	return stored, nil
}

// Track returns the track with the given id
func (s *Store) Track(ctx context.Context, id string) (domain.Track, error) {
	if s == nil || s.db == nil {
		return domain.Track{}, errNoDB
	}
	t, err := scanTrack(s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Track{}, ErrNotFound
	}
	return t, err
}

// AllTracks lists every stored track by title
func (s *Store) AllTracks(ctx context.Context) ([]domain.Track, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// RemoveTrack deletes a track and its playlist entries
func (s *Store) RemoveTrack(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("library: remove track: %w", err)
	}
	return notFound(res)
}
