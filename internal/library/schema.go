package library

import "fmt"

const schemaTracks = `
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	source_id TEXT NOT NULL,
	title TEXT NOT NULL,
	artist TEXT,
	album TEXT,
	duration REAL NOT NULL DEFAULT 0 CHECK (duration >= 0),
	thumbnail_url TEXT,
	created_at INTEGER NOT NULL,
	UNIQUE (source, source_id)
);`

const schemaPlaylists = `
CREATE TABLE IF NOT EXISTS playlists (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at INTEGER NOT NULL
);`

const schemaPlaylistTracks = `
CREATE TABLE IF NOT EXISTS playlist_tracks (
	playlist_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	track_id TEXT NOT NULL,
	PRIMARY KEY (playlist_id, position),
	FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
	FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE
);`

const schemaIndexes = `
CREATE INDEX IF NOT EXISTS idx_tracks_title ON tracks(title);
CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(track_id);`

// EnsureSchema creates missing tables and indexes
func (s *Store) EnsureSchema() error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	for _, stmt := range []string{schemaTracks, schemaPlaylists, schemaPlaylistTracks, schemaIndexes} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("library: ensure schema: %w", err)
		}
	}
	return nil
}
