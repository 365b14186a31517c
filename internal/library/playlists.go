package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genricoloni/streamly/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrDuplicateName is returned when a playlist name is already taken
var ErrDuplicateName = errors.New("library: playlist name already exists")

func scanPlaylist(row rowScanner) (domain.Playlist, error) {
	var (
		p       domain.Playlist
		created int64
	)
	if err := row.Scan(&p.ID, &p.Name, &created); err != nil {
		return domain.Playlist{}, err
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("library: playlist name is required")
	}
	return name, nil
}

// CreatePlaylist adds an empty playlist
func (s *Store) CreatePlaylist(ctx context.Context, name string) (domain.Playlist, error) {
	if s == nil || s.db == nil {
		return domain.Playlist{}, errNoDB
	}
	name, err := cleanName(name)
	if err != nil {
		return domain.Playlist{}, err
	}
	if _, err := s.PlaylistByName(ctx, name); err == nil {
		return domain.Playlist{}, ErrDuplicateName
	} else if !errors.Is(err, ErrNotFound) {
		return domain.Playlist{}, err
	}

	p := domain.Playlist{ID: uuid.NewString(), Name: name, CreatedAt: time.Now()}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.Unix()); err != nil {
		return domain.Playlist{}, fmt.Errorf("library: create playlist: %w", err)
	}
	p.CreatedAt = time.Unix(p.CreatedAt.Unix(), 0)
	s.logger.Info("Playlist created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// RenamePlaylist changes a playlist's name
func (s *Store) RenamePlaylist(ctx context.Context, id, name string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if other, err := s.PlaylistByName(ctx, name); err == nil && other.ID != id {
		return ErrDuplicateName
	}
	res, err := s.db.ExecContext(ctx, `UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("library: rename playlist: %w", err)
	}
	return notFound(res)
}

// DeletePlaylist removes a playlist; its tracks stay in the library
func (s *Store) DeletePlaylist(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("library: delete playlist: %w", err)
	}
	return notFound(res)
}

// ListPlaylists returns every playlist by name
func (s *Store) ListPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM playlists ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PlaylistByName looks a playlist up by its exact name
func (s *Store) PlaylistByName(ctx context.Context, name string) (domain.Playlist, error) {
	if s == nil || s.db == nil {
		return domain.Playlist{}, errNoDB
	}
	p, err := scanPlaylist(s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM playlists WHERE name = ?`, strings.TrimSpace(name)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Playlist{}, ErrNotFound
	}
	return p, err
}

// AppendTrack adds a stored track at the end of a playlist
func (s *Store) AppendTrack(ctx context.Context, playlistID, trackID string) (err error) {
	if s == nil || s.db == nil {
		return errNoDB
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM playlists WHERE id = ?) * (SELECT COUNT(*) FROM tracks WHERE id = ?)`,
		playlistID, trackID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		err = ErrNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, position, track_id)
		SELECT ?, COALESCE(MAX(position) + 1, 0), ? FROM playlist_tracks WHERE playlist_id = ?
	`, playlistID, trackID, playlistID); err != nil {
		return fmt.Errorf("library: append track: %w", err)
	}

	return tx.Commit()
}

// RemoveAt drops the entry at index (zero-based, in play order) from a playlist
func (s *Store) RemoveAt(ctx context.Context, playlistID string, index int) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	if index < 0 {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM playlist_tracks
		WHERE playlist_id = ? AND position = (
			SELECT position FROM playlist_tracks
			WHERE playlist_id = ?
			ORDER BY position
			LIMIT 1 OFFSET ?
		)
	`, playlistID, playlistID, index)
	if err != nil {
		return fmt.Errorf("library: remove playlist entry: %w", err)
	}
	return notFound(res)
}

// Tracks returns a playlist's tracks in play order
func (s *Store) Tracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists WHERE id = ?`, playlistID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.source, t.source_id, t.title, t.artist, t.album, t.duration, t.thumbnail_url, t.created_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position
	`, playlistID)
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
