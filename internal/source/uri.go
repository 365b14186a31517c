package source

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/genricoloni/streamly/internal/domain"
)

// TrackFromURI builds an unsaved track from a file path or a file/http(s) URI
func TrackFromURI(uri string) (domain.Track, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return domain.Track{}, fmt.Errorf("invalid uri %q: %w", uri, err)
	}

	switch u.Scheme {
	case "file", "":
		if u.Path == "" || !filepath.IsAbs(u.Path) {
			return domain.Track{}, fmt.Errorf("invalid file uri %q", uri)
		}
		return domain.Track{
			Source:   domain.SourceFile,
			SourceID: u.Path,
			Title:    strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path)),
		}, nil
	case "http", "https":
		title := path.Base(u.Path)
		if title == "." || title == "/" {
			title = u.Host
		}
		return domain.Track{
			Source:   domain.SourceHTTP,
			SourceID: uri,
			Title:    title,
		}, nil
	default:
		return domain.Track{}, fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
}
