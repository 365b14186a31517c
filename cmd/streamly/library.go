package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/genricoloni/streamly/internal/config"
	"github.com/genricoloni/streamly/internal/domain"
	"github.com/genricoloni/streamly/internal/library"
	"github.com/genricoloni/streamly/internal/source"
	"github.com/spf13/cobra"
)

// libraryOpener hands a command the library and a release func for it
type libraryOpener func() (*library.Store, func(), error)

// openLibrary opens the configured library for a single command
func openLibrary() (*library.Store, func(), error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := library.NewStore(logger, config.NewAppConfig(logger))
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		_ = logger.Sync()
	}, nil
}

// withLibrary adapts a library action into a cobra RunE
func withLibrary(open libraryOpener, fn func(cmd *cobra.Command, store *library.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, release, err := open()
		if err != nil {
			return err
		}
		defer release()
		return fn(cmd, store, args)
	}
}

// newPlaylistCmd manages the playlists the daemon can autoplay
func newPlaylistCmd(open libraryOpener) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage stored playlists",
	}

	playlistCmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List playlists",
			Args:  cobra.NoArgs,
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				playlists, err := store.ListPlaylists(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range playlists {
					tracks, err := store.Tracks(cmd.Context(), p.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d tracks\n", p.Name, len(tracks))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an empty playlist",
			Args:  cobra.ExactArgs(1),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := store.CreatePlaylist(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", p.Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename NAME NEW_NAME",
			Short: "Rename a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := playlistByName(cmd, store, args[0])
				if err != nil {
					return err
				}
				return store.RenamePlaylist(cmd.Context(), p.ID, args[1])
			}),
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a playlist; its tracks stay in the library",
			Args:  cobra.ExactArgs(1),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := playlistByName(cmd, store, args[0])
				if err != nil {
					return err
				}
				return store.DeletePlaylist(cmd.Context(), p.ID)
			}),
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print a playlist in play order",
			Args:  cobra.ExactArgs(1),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := playlistByName(cmd, store, args[0])
				if err != nil {
					return err
				}
				tracks, err := store.Tracks(cmd.Context(), p.ID)
				if err != nil {
					return err
				}
				for i, t := range tracks {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", i, t.ID, describe(t))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add NAME URI|TRACK_ID",
			Short: "Append a stored track, a file or an http(s) URL to a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := playlistByName(cmd, store, args[0])
				if err != nil {
					return err
				}
				track, err := resolveTrack(cmd, store, args[1])
				if err != nil {
					return err
				}
				if err := store.AppendTrack(cmd.Context(), p.ID, track.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", describe(track), p.Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rm NAME INDEX",
			Short: "Remove the entry at INDEX (0-based) from a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				p, err := playlistByName(cmd, store, args[0])
				if err != nil {
					return err
				}
				index, err := strconv.Atoi(args[1])
				if err != nil || index < 0 {
					return fmt.Errorf("invalid index %q", args[1])
				}
				return store.RemoveAt(cmd.Context(), p.ID, index)
			}),
		},
	)
	return playlistCmd
}

// newTrackCmd manages the stored tracks themselves
func newTrackCmd(open libraryOpener) *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Manage stored tracks",
	}

	trackCmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List every stored track",
			Args:  cobra.NoArgs,
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				tracks, err := store.AllTracks(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range tracks {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.ID, t.Source, describe(t))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rm TRACK_ID",
			Short: "Delete a track and every playlist entry pointing at it",
			Args:  cobra.ExactArgs(1),
			RunE: withLibrary(open, func(cmd *cobra.Command, store *library.Store, args []string) error {
				return store.RemoveTrack(cmd.Context(), args[0])
			}),
		},
	)
	return trackCmd
}

func playlistByName(cmd *cobra.Command, store *library.Store, name string) (domain.Playlist, error) {
	p, err := store.PlaylistByName(cmd.Context(), name)
	if errors.Is(err, library.ErrNotFound) {
		return domain.Playlist{}, fmt.Errorf("playlist %q not found", name)
	}
	return p, err
}

// resolveTrack looks ref up as a stored track id, then stores it as a URI
func resolveTrack(cmd *cobra.Command, store *library.Store, ref string) (domain.Track, error) {
	track, err := store.Track(cmd.Context(), ref)
	if err == nil {
		return track, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return domain.Track{}, err
	}

	track, err = source.TrackFromURI(ref)
	if err != nil {
		return domain.Track{}, err
	}
	return store.AddTrack(cmd.Context(), track)
}

func describe(t domain.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
