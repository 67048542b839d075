package downloader_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NamanBalaji/mtdl/internal/chunk"
	"github.com/NamanBalaji/mtdl/internal/common"
	"github.com/NamanBalaji/mtdl/internal/downloader"
	"github.com/NamanBalaji/mtdl/internal/errors"
	"github.com/NamanBalaji/mtdl/internal/progress"
	httpProto "github.com/NamanBalaji/mtdl/internal/protocol/http"
)

type recordingRenderer struct {
	mu        sync.Mutex
	begins    []progress.RunInfo
	snapshots []progress.Snapshot
	finals    []progress.Snapshot
	summaries []progress.Summary
}

func (r *recordingRenderer) Begin(info progress.RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins = append(r.begins, info)
}

func (r *recordingRenderer) Render(s progress.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recordingRenderer) Finish(s progress.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	r.finals = append(r.finals, s)
}

func (r *recordingRenderer) Summary(s progress.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

// stubFetcher serves in-memory content and lets tests replace the body of a range.
type stubFetcher struct {
	size         int64
	infoErr      error
	refuseRanges bool
	gets         atomic.Int32
	body         func(c chunk.Chunk) io.ReadCloser
}

func (s *stubFetcher) Initialize(ctx context.Context, url string) (*common.DownloadInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return &common.DownloadInfo{URL: url, TotalSize: s.size, SupportsRanges: !s.refuseRanges}, nil
}

func (s *stubFetcher) FetchRange(ctx context.Context, url string, c chunk.Chunk) (io.ReadCloser, error) {
	s.gets.Add(1)
	return s.body(c), nil
}

func randomContent(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(b)
	return b
}

func contentServer(t *testing.T, content []byte, gets *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && gets != nil {
			gets.Add(1)
		}
		http.ServeContent(w, r, "file.bin", time.Time{}, bytes.NewReader(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, workers int) *common.Config {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.Workers = workers
	cfg.Timeout = 10 * time.Second
	cfg.TempDir = t.TempDir()
	return cfg
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temp dir %s to be cleaned up, found %d entries", dir, len(entries))
	}
}

func TestReassemblyFidelity(t *testing.T) {
	content := randomContent(100_003)
	srv := contentServer(t, content, nil)

	for _, workers := range []int{1, 2, 5, 16} {
		cfg := testConfig(t, workers)
		out := filepath.Join(t.TempDir(), "nested", "file.bin")
		rec := &recordingRenderer{}

		dl := downloader.NewDownload(srv.URL+"/file.bin", out, httpProto.NewHandler(cfg), cfg,
			downloader.WithRenderer(rec), downloader.WithReportInterval(10*time.Millisecond))
		if err := dl.Start(t.Context()); err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}

		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("workers=%d: output differs from source (%d vs %d bytes)", workers, len(got), len(content))
		}
		if dl.GetStatus() != common.StatusCompleted {
			t.Errorf("workers=%d: expected Completed, got %s", workers, common.StatusName(dl.GetStatus()))
		}
		if dl.Workers != workers {
			t.Errorf("expected %d workers, got %d", workers, dl.Workers)
		}
		if len(rec.summaries) != 1 || rec.summaries[0].TotalSize != int64(len(content)) {
			t.Errorf("workers=%d: unexpected summaries %+v", workers, rec.summaries)
		}
		assertTempDirEmpty(t, cfg.TempDir)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	content := randomContent(64 * 1024)
	srv := contentServer(t, content, nil)

	cfg := testConfig(t, 4)
	cfg.BufferSize = 512
	rec := &recordingRenderer{}
	out := filepath.Join(t.TempDir(), "out.bin")

	dl := downloader.NewDownload(srv.URL, out, httpProto.NewHandler(cfg), cfg,
		downloader.WithRenderer(rec), downloader.WithReportInterval(time.Millisecond))
	if err := dl.Start(t.Context()); err != nil {
		t.Fatal(err)
	}

	if len(rec.finals) != 1 {
		t.Fatalf("expected one final render, got %d", len(rec.finals))
	}
	if rec.finals[0].Downloaded != int64(len(content)) {
		t.Errorf("final render shows %d of %d bytes", rec.finals[0].Downloaded, len(content))
	}

	prev := make([]int64, 4)
	for _, s := range rec.snapshots {
		if s.Downloaded > s.TotalSize {
			t.Fatalf("sum %d exceeds total %d", s.Downloaded, s.TotalSize)
		}
		for i, c := range s.Chunks {
			if c.Downloaded < prev[i] {
				t.Fatalf("counter %d went backwards: %d -> %d", i, prev[i], c.Downloaded)
			}
			if c.Downloaded > c.Size {
				t.Fatalf("counter %d exceeds its range: %d > %d", i, c.Downloaded, c.Size)
			}
			prev[i] = c.Downloaded
		}
	}
}

func TestWorkerFailureIsFatal(t *testing.T) {
	content := randomContent(10_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && !strings.HasPrefix(r.Header.Get("Range"), "bytes=0-") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "file.bin", time.Time{}, bytes.NewReader(content))
	}))
	defer srv.Close()

	cfg := testConfig(t, 4)
	out := filepath.Join(t.TempDir(), "out.bin")
	rec := &recordingRenderer{}

	dl := downloader.NewDownload(srv.URL, out, httpProto.NewHandler(cfg), cfg,
		downloader.WithRenderer(rec), downloader.WithReportInterval(10*time.Millisecond))
	err := dl.Start(t.Context())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.IsCategory(err, errors.CategoryHTTP) {
		t.Errorf("expected an http error, got %v", err)
	}
	if !stderrors.Is(err, httpProto.ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("output file must not exist, stat: %v", statErr)
	}
	if dl.GetStatus() != common.StatusFailed {
		t.Errorf("expected Failed, got %s", common.StatusName(dl.GetStatus()))
	}
	if dl.ErrorMessage == "" {
		t.Error("expected ErrorMessage to be recorded")
	}
	if len(rec.summaries) != 0 {
		t.Error("summary must not be reported for a failed run")
	}
	assertTempDirEmpty(t, cfg.TempDir)
}

func TestZeroSizeResource(t *testing.T) {
	var gets atomic.Int32
	srv := contentServer(t, nil, &gets)

	cfg := testConfig(t, 4)
	out := filepath.Join(t.TempDir(), "empty.bin")
	rec := &recordingRenderer{}

	dl := downloader.NewDownload(srv.URL, out, httpProto.NewHandler(cfg), cfg, downloader.WithRenderer(rec))
	if err := dl.Start(t.Context()); err != nil {
		t.Fatal(err)
	}

	if n := gets.Load(); n != 0 {
		t.Errorf("expected no GET requests, got %d", n)
	}
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 0 {
		t.Errorf("expected empty output, got %d bytes", fi.Size())
	}
	if len(rec.snapshots) != 0 {
		t.Errorf("reporter must not run, got %d renders", len(rec.snapshots))
	}
	if dl.GetStatus() != common.StatusCompleted {
		t.Errorf("expected Completed, got %s", common.StatusName(dl.GetStatus()))
	}
}

func TestWorkersClampedToSize(t *testing.T) {
	content := []byte("abc")
	srv := contentServer(t, content, nil)

	cfg := testConfig(t, 8)
	out := filepath.Join(t.TempDir(), "abc.txt")

	dl := downloader.NewDownload(srv.URL, out, httpProto.NewHandler(cfg), cfg, downloader.WithRenderer(&recordingRenderer{}))
	if err := dl.Start(t.Context()); err != nil {
		t.Fatal(err)
	}
	if dl.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", dl.Workers)
	}

	got, _ := os.ReadFile(out)
	if string(got) != "abc" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSizeUnavailable(t *testing.T) {
	cfg := testConfig(t, 2)
	f := &stubFetcher{infoErr: errors.NewSizeUnavailableError("http://example.com/x")}
	out := filepath.Join(t.TempDir(), "x")

	dl := downloader.NewDownload("http://example.com/x", out, f, cfg, downloader.WithRenderer(&recordingRenderer{}))
	err := dl.Start(t.Context())
	if !stderrors.Is(err, errors.ErrSizeUnavailable) {
		t.Fatalf("expected ErrSizeUnavailable, got %v", err)
	}
	if dl.GetStatus() != common.StatusFailed {
		t.Errorf("expected Failed, got %s", common.StatusName(dl.GetStatus()))
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file must not exist")
	}
}

func TestShortBodyFails(t *testing.T) {
	cfg := testConfig(t, 2)
	f := &stubFetcher{
		size: 100,
		body: func(c chunk.Chunk) io.ReadCloser {
			if c.Index == 1 {
				return io.NopCloser(strings.NewReader("short"))
			}
			return io.NopCloser(bytes.NewReader(make([]byte, c.Size())))
		},
	}

	dl := downloader.NewDownload("http://example.com/x", filepath.Join(t.TempDir(), "x"), f, cfg,
		downloader.WithRenderer(&recordingRenderer{}), downloader.WithReportInterval(10*time.Millisecond))
	err := dl.Start(t.Context())
	if !stderrors.Is(err, downloader.ErrIncompleteChunk) {
		t.Fatalf("expected ErrIncompleteChunk, got %v", err)
	}
	if !errors.IsCategory(err, errors.CategoryNetwork) {
		t.Errorf("expected a network error, got %v", err)
	}
}

func TestOversizedBodyFails(t *testing.T) {
	cfg := testConfig(t, 1)
	f := &stubFetcher{
		size: 10,
		body: func(c chunk.Chunk) io.ReadCloser {
			return io.NopCloser(bytes.NewReader(make([]byte, 20)))
		},
	}

	dl := downloader.NewDownload("http://example.com/x", filepath.Join(t.TempDir(), "x"), f, cfg,
		downloader.WithRenderer(&recordingRenderer{}), downloader.WithReportInterval(10*time.Millisecond))
	if err := dl.Start(t.Context()); !stderrors.Is(err, downloader.ErrIncompleteChunk) {
		t.Fatalf("expected ErrIncompleteChunk, got %v", err)
	}
}

func TestNewDownloadDefaults(t *testing.T) {
	dl := downloader.NewDownload("http://example.com/f", "f", &stubFetcher{}, nil)
	if dl.GetStatus() != common.StatusPending {
		t.Errorf("expected Pending, got %s", common.StatusName(dl.GetStatus()))
	}
	if dl.Workers != common.DefaultWorkers {
		t.Errorf("expected %d workers, got %d", common.DefaultWorkers, dl.Workers)
	}
	if dl.Duration() != 0 {
		t.Errorf("expected zero duration before start, got %v", dl.Duration())
	}
}

func TestRangesRefusedAtSizeDiscovery(t *testing.T) {
	cfg := testConfig(t, 4)
	out := filepath.Join(t.TempDir(), "file.bin")
	fetcher := &stubFetcher{size: 1024, refuseRanges: true}

	dl := downloader.NewDownload("http://example.com/file.bin", out, fetcher, cfg,
		downloader.WithRenderer(&recordingRenderer{}))
	err := dl.Start(t.Context())
	if !stderrors.Is(err, httpProto.ErrRangesNotSupported) {
		t.Fatalf("expected ErrRangesNotSupported, got %v", err)
	}
	if !errors.IsCategory(err, errors.CategoryHTTP) {
		t.Errorf("expected an http error, got %v", err)
	}
	if n := fetcher.gets.Load(); n != 0 {
		t.Errorf("expected no range requests, got %d", n)
	}
	if dl.GetStatus() != common.StatusFailed {
		t.Errorf("expected Failed, got %s", common.StatusName(dl.GetStatus()))
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("expected no output file, stat returned %v", statErr)
	}
	assertTempDirEmpty(t, cfg.TempDir)
}

func TestResourceValidatorsRecorded(t *testing.T) {
	content := randomContent(4096)
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-iso9660-image")
		w.Header().Set("ETag", `"v1-4096"`)
		http.ServeContent(w, r, "file.iso", modified, bytes.NewReader(content))
	}))
	defer srv.Close()

	cfg := testConfig(t, 2)
	out := filepath.Join(t.TempDir(), "file.iso")
	dl := downloader.NewDownload(srv.URL+"/file.iso", out, httpProto.NewHandler(cfg), cfg,
		downloader.WithRenderer(&recordingRenderer{}), downloader.WithReportInterval(10*time.Millisecond))
	if err := dl.Start(t.Context()); err != nil {
		t.Fatal(err)
	}

	if dl.MimeType != "application/x-iso9660-image" {
		t.Errorf("unexpected mime type %q", dl.MimeType)
	}
	if dl.ETag != `"v1-4096"` {
		t.Errorf("unexpected etag %q", dl.ETag)
	}
	if !dl.LastModified.Equal(modified) {
		t.Errorf("expected last modified %v, got %v", modified, dl.LastModified)
	}
}
