// Package pathmap re-roots source files from the watched tree into the output
// tree.
package pathmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideRoot is returned when a file does not live under the watched root.
	ErrOutsideRoot = errors.New("file is outside the watched root")
	// ErrCreateDir marks failures creating the target directory.
	ErrCreateDir = errors.New("create target directory")
)

// Mode selects how the watched-root prefix is removed.
type Mode string

const (
	// Relative computes the path relative to the watched root and joins it
	// onto the output root.
	Relative Mode = "relative"
	// Literal drops len(watchedRoot) bytes from the front of the path and
	// concatenates the remainder onto the output root, whether or not the
	// root was actually a prefix.
	Literal Mode = "literal"
)

// ParseMode converts a config value into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case Relative, "":
		return Relative, nil
	case Literal:
		return Literal, nil
	default:
		return "", fmt.Errorf("unknown path mode %q", value)
	}
}

// Mapping is the output location for one source file.
type Mapping struct {
	Source      string
	TargetDir   string
	TargetFile  string
	Destination string
}

// Mapper maps files from WatchedRoot into OutputRoot.
type Mapper struct {
	WatchedRoot string
	OutputRoot  string
	Mode        Mode
	// Suffix is appended to the target file name, never substituted for the
	// existing extension.
	Suffix string
}

// Map computes the mapping for file.
func (m Mapper) Map(file string) (Mapping, error) {
	var dirSuffix, fileSuffix string
	switch m.Mode {
	case Literal:
		dirSuffix = stripLiteral(filepath.Dir(file), m.WatchedRoot)
		fileSuffix = stripLiteral(file, m.WatchedRoot)
		return Mapping{
			Source:      file,
			TargetDir:   m.OutputRoot + dirSuffix,
			TargetFile:  m.OutputRoot + fileSuffix,
			Destination: m.OutputRoot + fileSuffix + m.Suffix,
		}, nil
	case Relative, "":
		rel, err := relativeTo(m.WatchedRoot, file)
		if err != nil {
			return Mapping{Source: file}, err
		}
		target := filepath.Join(m.OutputRoot, rel)
		return Mapping{
			Source:      file,
			TargetDir:   filepath.Dir(target),
			TargetFile:  target,
			Destination: target + m.Suffix,
		}, nil
	default:
		return Mapping{Source: file}, fmt.Errorf("unknown path mode %q", m.Mode)
	}
}

// EnsureDir creates the mapping's target directory and any missing parents.
// An existing directory is not an error.
func EnsureDir(mapping Mapping) error {
	if err := os.MkdirAll(mapping.TargetDir, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCreateDir, mapping.TargetDir, err)
	}
	return nil
}

func stripLiteral(value, root string) string {
	if len(value) <= len(root) {
		return ""
	}
	return value[len(root):]
}

func relativeTo(root, file string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve watched root %q: %w", root, err)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolve source %q: %w", file, err)
	}
	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrOutsideRoot, file, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, file, root)
	}
	return rel, nil
}
