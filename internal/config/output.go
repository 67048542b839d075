package config

import (
	"net/url"
	"strings"

	"github.com/NamanBalaji/mtdl/internal/errors"
)

// FilenameFromURL returns the last segment of the URL path. A URL whose path
// is empty or ends with a slash has no usable segment.
func FilenameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.ErrNoFilenameInferred
	}

	name := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if name == "" || name == "." || name == ".." {
		return "", errors.ErrNoFilenameInferred
	}

	return name, nil
}
