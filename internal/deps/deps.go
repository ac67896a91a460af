package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotConfigured is reported for a requirement with an empty command.
var ErrNotConfigured = errors.New("command not configured")

// Requirement names one external binary the converter executes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the lookup result for a Requirement.
type Status struct {
	Requirement
	// Path is the resolved executable; empty when the lookup failed.
	Path string
	Err  error
}

// Available reports whether the binary was found.
func (s Status) Available() bool { return s.Err == nil && s.Path != "" }

// Detail is the resolved path, or the reason the lookup failed.
func (s Status) Detail() string {
	if s.Available() {
		return s.Path
	}
	if s.Err == nil {
		return "not checked"
	}
	return s.Err.Error()
}

// Check resolves req.Command via PATH, or directly when it names a file.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Err = ErrNotConfigured
		return status
	}
	resolved, err := exec.LookPath(req.Command)
	if err != nil {
		status.Err = fmt.Errorf("binary %q not found: %w", req.Command, err)
		return status
	}
	status.Path = resolved
	return status
}

// CheckBinaries runs Check for every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}
