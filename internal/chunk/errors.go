package chunk

import "errors"

var (
	ErrInvalidWorkerCount = errors.New("invalid worker count (must be at least 1)")
	ErrChunkFileOpen      = errors.New("failed to open chunk file")
	ErrChunkFileCopy      = errors.New("failed to copy chunk data")
	ErrTargetFileCreate   = errors.New("failed to create target file for merging")
	ErrTargetDirCreate    = errors.New("failed to create target directory")
	ErrFileWrite          = errors.New("failed to write to file")
)
