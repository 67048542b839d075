package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/NamanBalaji/mtdl/internal/chunk"
	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/errors"
	"github.com/NamanBalaji/mtdl/internal/logger"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 90 * time.Second
	defaultUserAgent      = "mtdl/1.0"
)

// Handler issues the metadata and range requests of a download.
type Handler struct {
	client  *http.Client
	config  *common.Config
	limiter *rate.Limiter
}

// Option customizes a Handler.
type Option func(*Handler)

// WithTransport replaces the round tripper used by the handler.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *Handler) {
		h.client.Transport = rt
	}
}

// NewHandler creates a new HTTP protocol handler.
func NewHandler(config *common.Config, opts ...Option) *Handler {
	if config == nil {
		config = common.DefaultConfig()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   config.Workers,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
	}

	h := &Handler{
		client:  &http.Client{Transport: transport},
		config:  config,
		limiter: NewLimiter(config.ThrottleSpeed, config.BufferSize),
	}

	for _, opt := range opts {
		opt(h)
	}

	logger.Debugf("HTTP handler created: timeout=%v, throttle=%d B/s", config.Timeout, config.ThrottleSpeed)

	return h
}

// Supports reports whether urlStr is an absolute http or https URL.
func Supports(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return false
	}

	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// Initialize discovers the size of the resource with a HEAD request.
func (h *Handler) Initialize(ctx context.Context, urlStr string) (*common.DownloadInfo, error) {
	logger.Debugf("Initializing with HEAD request: %s", urlStr)

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := h.newRequest(ctx, http.MethodHead, urlStr)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Errorf("HEAD request failed for %s: %v", urlStr, err)
		return nil, ClassifyError(err, urlStr, "HEAD")
	}
	defer resp.Body.Close()

	logger.Debugf("HEAD response for %s: status=%d", urlStr, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ClassifyHTTPError(resp.StatusCode, urlStr, "HEAD")
	}

	size, err := parseContentLength(resp.Header.Get("Content-Length"))
	if err != nil {
		return nil, errors.NewParseError(err, urlStr, "HEAD")
	}
	if size < 0 {
		return nil, errors.NewSizeUnavailableError(urlStr)
	}

	info := &common.DownloadInfo{
		URL:            resp.Request.URL.String(),
		MimeType:       resp.Header.Get("Content-Type"),
		TotalSize:      size,
		SupportsRanges: supportsRanges(resp.Header.Get("Accept-Ranges")),
		LastModified:   parseLastModified(resp.Header.Get("Last-Modified")),
		ETag:           resp.Header.Get("ETag"),
	}

	logger.Debugf("Download info: size=%d, supports-ranges=%v, type=%s, etag=%s",
		info.TotalSize, info.SupportsRanges, info.MimeType, info.ETag)

	return info, nil
}

// FetchRange requests the bytes of c and returns the response body. The
// configured timeout bounds the whole exchange, body included, and is released
// when the body is closed. The response must be a 206 whose Content-Range
// matches c exactly.
func (h *Handler) FetchRange(ctx context.Context, urlStr string, c chunk.Chunk) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)

	req, err := h.newRequest(ctx, http.MethodGet, urlStr)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Range", c.RangeHeader())
	logger.Debugf("Set Range header: %s for chunk %d", c.RangeHeader(), c.Index)

	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, ClassifyError(err, urlStr, "GET")
	}

	if err := checkRangeResponse(resp, c, urlStr); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	var body io.ReadCloser = resp.Body
	if h.limiter != nil {
		body = &limitedReader{ctx: ctx, r: body, limiter: h.limiter}
	}

	return &cancelOnClose{ReadCloser: body, cancel: cancel}, nil
}

func checkRangeResponse(resp *http.Response, c chunk.Chunk, urlStr string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return errors.NewHTTPError(ErrRangesNotSupported, urlStr, "GET", resp.StatusCode)
	case resp.StatusCode != http.StatusPartialContent:
		return ClassifyHTTPError(resp.StatusCode, urlStr, "GET")
	}

	start, end, _, err := ParseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return errors.NewParseError(err, urlStr, "GET")
	}
	if start != c.StartByte || end != c.EndByte {
		return errors.NewHTTPError(fmt.Errorf("%w: want %d-%d, got %d-%d", ErrRangeMismatch, c.StartByte, c.EndByte, start, end),
			urlStr, "GET", resp.StatusCode)
	}

	return nil
}

func (h *Handler) newRequest(ctx context.Context, method, urlStr string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, http.NoBody)
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Errorf("failed to create request: %w", err), urlStr, method)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for key, value := range h.config.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// Close releases idle connections.
func (h *Handler) Close() {
	h.client.CloseIdleConnections()
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// parseContentLength returns -1 for an empty header.
func parseContentLength(header string) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return -1, nil
	}

	n, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid Content-Length %q: %w", header, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid Content-Length %q", header)
	}

	return n, nil
}

// ParseContentRange parses a "bytes start-end/total" header value. Total is -1
// when the server sent "*".
func ParseContentRange(header string) (start, end, total int64, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidContentRange, header)
	}

	rng, size, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidContentRange, header)
	}

	first, last, ok := strings.Cut(rng, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidContentRange, header)
	}

	if start, err = strconv.ParseInt(first, 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: start: %w", ErrInvalidContentRange, err)
	}
	if end, err = strconv.ParseInt(last, 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: end: %w", ErrInvalidContentRange, err)
	}

	total = -1
	if size != "*" {
		if total, err = strconv.ParseInt(size, 10, 64); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: total: %w", ErrInvalidContentRange, err)
		}
	}

	return start, end, total, nil
}

// supportsRanges is false only for an explicit "Accept-Ranges: none". Many
// servers omit the header and still answer range requests.
func supportsRanges(header string) bool {
	return !strings.EqualFold(strings.TrimSpace(header), "none")
}

func parseLastModified(header string) time.Time {
	if header == "" {
		return time.Time{}
	}

	t, err := http.ParseTime(header)
	if err != nil {
		logger.Debugf("Failed to parse Last-Modified header: %s, error: %v", header, err)
		return time.Time{}
	}

	return t
}
