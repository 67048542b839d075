package errors

import (
	"errors"
	"fmt"
)

// Category classifies every fatal error a download can end with.
type Category int

const (
	CategoryUnknown Category = iota
	CategorySizeUnavailable
	CategoryNoFilenameInferred
	CategoryNetwork
	CategoryHTTP
	CategoryIO
	CategoryParse
)

func (c Category) String() string {
	switch c {
	case CategorySizeUnavailable:
		return "size unavailable"
	case CategoryNoFilenameInferred:
		return "no filename inferred"
	case CategoryNetwork:
		return "network error"
	case CategoryHTTP:
		return "http error"
	case CategoryIO:
		return "io error"
	case CategoryParse:
		return "parse error"
	default:
		return "error"
	}
}

var (
	// ErrSizeUnavailable is returned when the remote resource does not declare a usable length.
	ErrSizeUnavailable = &DownloadError{Category: CategorySizeUnavailable, Err: errors.New("content length unavailable")}

	// ErrNoFilenameInferred is returned when no output path was given and none can be derived from the URL.
	ErrNoFilenameInferred = &DownloadError{Category: CategoryNoFilenameInferred, Err: errors.New("cannot infer a filename from the url, use -output")}
)

// DownloadError carries the category, the operation and the URL or path an error relates to.
type DownloadError struct {
	Category Category
	Op       string
	URL      string
	Status   int
	Err      error
}

func (e *DownloadError) Error() string {
	switch {
	case e.Category == CategoryHTTP:
		return fmt.Sprintf("%s during %s for %s: status %d: %v", e.Category, e.Op, e.URL, e.Status, e.Err)
	case e.Op != "" && e.URL != "":
		return fmt.Sprintf("%s during %s for %s: %v", e.Category, e.Op, e.URL, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s during %s: %v", e.Category, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Category, e.Err)
	}
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by category.
func (e *DownloadError) Is(target error) bool {
	if target != ErrSizeUnavailable && target != ErrNoFilenameInferred {
		return false
	}

	return target.(*DownloadError).Category == e.Category
}

func NewNetworkError(err error, url, op string) error {
	return &DownloadError{Category: CategoryNetwork, Op: op, URL: url, Err: err}
}

func NewHTTPError(err error, url, op string, status int) error {
	return &DownloadError{Category: CategoryHTTP, Op: op, URL: url, Status: status, Err: err}
}

func NewIOError(err error, path, op string) error {
	return &DownloadError{Category: CategoryIO, Op: op, URL: path, Err: err}
}

func NewParseError(err error, url, op string) error {
	return &DownloadError{Category: CategoryParse, Op: op, URL: url, Err: err}
}

func NewSizeUnavailableError(url string) error {
	return &DownloadError{Category: CategorySizeUnavailable, Op: "size discovery", URL: url, Err: ErrSizeUnavailable.Err}
}

// CategoryOf returns the category of the first DownloadError in err's chain.
func CategoryOf(err error) Category {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Category
	}

	return CategoryUnknown
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, c Category) bool {
	return err != nil && CategoryOf(err) == c
}
