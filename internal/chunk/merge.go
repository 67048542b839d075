package chunk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NamanBalaji/mtdl/internal/errors"
	"github.com/NamanBalaji/mtdl/internal/logger"
)

const mergeBufferSize = 256 * 1024

// Merge creates target, truncating any existing file, and appends every part
// in the given order. The parent directory of target is created if needed.
// A failure leaves whatever was already written in place.
func Merge(target string, parts []string) (err error) {
	logger.Debugf("Merging %d chunk files into %s", len(parts), target)

	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewIOError(fmt.Errorf("%w: %w", ErrTargetDirCreate, err), dir, "merge")
		}
	}

	out, err := os.Create(target)
	if err != nil {
		return errors.NewIOError(fmt.Errorf("%w: %w", ErrTargetFileCreate, err), target, "merge")
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.NewIOError(fmt.Errorf("%w: %w", ErrFileWrite, cerr), target, "merge")
		}
	}()

	w := bufio.NewWriterSize(out, mergeBufferSize)
	for i, part := range parts {
		n, err := appendPart(w, part)
		if err != nil {
			return err
		}
		logger.Debugf("Merged chunk %d (%d bytes) from %s", i, n, part)
	}

	if err := w.Flush(); err != nil {
		return errors.NewIOError(fmt.Errorf("%w: %w", ErrFileWrite, err), target, "merge")
	}

	return nil
}

func appendPart(w io.Writer, part string) (int64, error) {
	f, err := os.Open(part)
	if err != nil {
		return 0, errors.NewIOError(fmt.Errorf("%w: %w", ErrChunkFileOpen, err), part, "merge")
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return n, errors.NewIOError(fmt.Errorf("%w: %w", ErrChunkFileCopy, err), part, "merge")
	}

	return n, nil
}
