package http

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/NamanBalaji/mtdl/internal/errors"
)

var (
	ErrRangesNotSupported  = stderrors.New("server does not support range requests")
	ErrInvalidContentRange = stderrors.New("invalid Content-Range header")
	ErrRangeMismatch       = stderrors.New("Content-Range does not match the requested range")
	ErrNetworkProblem      = stderrors.New("network problem")
	ErrTimeout             = stderrors.New("request timed out")
	ErrUnexpectedStatus    = stderrors.New("unexpected status code")
	ErrNotFound            = stderrors.New("resource not found")
	ErrForbidden           = stderrors.New("access forbidden")
	ErrUnauthorized        = stderrors.New("unauthorized")
	ErrServerError         = stderrors.New("server error")
)

// ClassifyError wraps a transport level failure of op against urlStr.
func ClassifyError(err error, urlStr, op string) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewNetworkError(fmt.Errorf("%w: %w", ErrTimeout, err), urlStr, op)
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.NewNetworkError(fmt.Errorf("%w: %w", ErrTimeout, err), urlStr, op)
	default:
		return errors.NewNetworkError(fmt.Errorf("%w: %w", ErrNetworkProblem, err), urlStr, op)
	}
}

// ClassifyHTTPError maps a non-success status code to an error.
func ClassifyHTTPError(status int, urlStr, op string) error {
	var err error
	switch {
	case status == http.StatusNotFound:
		err = ErrNotFound
	case status == http.StatusForbidden:
		err = ErrForbidden
	case status == http.StatusUnauthorized:
		err = ErrUnauthorized
	case status == http.StatusRequestedRangeNotSatisfiable:
		err = ErrRangesNotSupported
	case status >= 500:
		err = ErrServerError
	default:
		err = ErrUnexpectedStatus
	}

	return errors.NewHTTPError(err, urlStr, op, status)
}
