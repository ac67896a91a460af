// Package sniff classifies candidate files by their content, not their name.
//
// A file qualifies for conversion when the MIME type detected from its magic
// bytes mentions "video" or "audio". Anything else, including files that can
// no longer be opened, is reported as a Skip with a reason so callers can log
// and count it without aborting the batch.
package sniff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrClassification marks candidates whose content could not be read.
var ErrClassification = errors.New("classification failed")

// Decision is the outcome of classifying one candidate.
type Decision int

const (
	Skip Decision = iota
	Qualifies
)

func (d Decision) String() string {
	if d == Qualifies {
		return "qualifies"
	}
	return "skip"
}

// Skip reasons.
const (
	ReasonNonMedia    = "non-media"
	ReasonUnreadable  = "unreadable"
	ReasonMissing     = "missing"
	ReasonIsDirectory = "is-directory"
)

// Classification is the tagged result for a single candidate.
type Classification struct {
	Path     string
	MIME     string
	IsVideo  bool
	IsAudio  bool
	Decision Decision
	Reason   string
	Err      error
}

// Detector returns the MIME type of a file's content.
type Detector interface {
	DetectFile(path string) (string, error)
}

// Sniffer classifies candidates with a Detector.
type Sniffer struct {
	detector Detector
}

// New returns a Sniffer backed by the mimetype library.
func New() *Sniffer {
	return &Sniffer{detector: magicDetector{}}
}

// NewWithDetector returns a Sniffer that uses detector.
func NewWithDetector(detector Detector) *Sniffer {
	if detector == nil {
		detector = magicDetector{}
	}
	return &Sniffer{detector: detector}
}

// Classify sniffs path and decides whether it should be converted.
func (s *Sniffer) Classify(path string) Classification {
	result := Classification{Path: path, Decision: Skip}

	info, err := os.Stat(path)
	if err != nil {
		result.Reason = ReasonUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			result.Reason = ReasonMissing
		}
		result.Err = fmt.Errorf("%w: %s: %w", ErrClassification, path, err)
		return result
	}
	if info.IsDir() {
		result.Reason = ReasonIsDirectory
		return result
	}

	mime, err := s.detector.DetectFile(path)
	if err != nil {
		result.Reason = ReasonUnreadable
		result.Err = fmt.Errorf("%w: %s: %w", ErrClassification, path, err)
		return result
	}
	return Decide(path, mime)
}

// Decide applies the media rule to an already-detected MIME string.
func Decide(path, mime string) Classification {
	result := Classification{Path: path, MIME: mime, Decision: Skip}
	lowered := strings.ToLower(mime)
	result.IsVideo = strings.Contains(lowered, "video")
	result.IsAudio = strings.Contains(lowered, "audio")
	if result.IsVideo || result.IsAudio {
		result.Decision = Qualifies
		return result
	}
	result.Reason = ReasonNonMedia
	return result
}

type magicDetector struct{}

func (magicDetector) DetectFile(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mtype.String(), nil
}
