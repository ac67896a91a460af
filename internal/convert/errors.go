package convert

import (
	"errors"
	"fmt"

	"movconv/internal/ffmpeg"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrUsage     = errors.New("usage")
	ErrMapping   = errors.New("path mapping failed")
	ErrDirectory = errors.New("directory creation failed")
	// ErrTranscode is shared with the encoder package so callers need only
	// import convert.
	ErrTranscode = ffmpeg.ErrTranscode
)

// TranscodeError is the encoder failure type.
type TranscodeError = ffmpeg.TranscodeError

// UsageError reports a wrong number of positional arguments.
type UsageError struct {
	Got int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("expected 4 arguments (%s), got %d", Usage, e.Got)
}

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

// DiscoveryError means the changed path could not be enumerated. It aborts
// the run.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ClassificationError means a candidate could not be sniffed. The file is
// skipped.
type ClassificationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %s (%s): %v", e.Path, e.Reason, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// DirectoryCreationError means the target directory could not be created.
// The file is marked failed.
type DirectoryCreationError struct {
	Dir string
	Err error
}

func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("create %s: %v", e.Dir, e.Err)
}

func (e *DirectoryCreationError) Unwrap() error { return e.Err }

func (e *DirectoryCreationError) Is(target error) bool { return target == ErrDirectory }

// MappingError means a file could not be placed under the output root.
type MappingError struct {
	Path string
	Err  error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("map %s: %v", e.Path, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func (e *MappingError) Is(target error) bool { return target == ErrMapping }
