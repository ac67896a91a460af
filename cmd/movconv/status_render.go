package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct{ tag, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

type statusLine struct {
	label   string
	kind    statusKind
	message string
}

// statusBoard collects check and watcher lines and prints them with the
// labels padded to a common width.
type statusBoard struct {
	lines    []statusLine
	colorize bool
}

func newStatusBoard(w io.Writer) *statusBoard {
	return &statusBoard{colorize: shouldColorize(w)}
}

func (b *statusBoard) add(label string, kind statusKind, format string, args ...any) {
	b.lines = append(b.lines, statusLine{label: label, kind: kind, message: fmt.Sprintf(format, args...)})
}

func (b *statusBoard) render(w io.Writer) {
	width := 0
	for _, line := range b.lines {
		width = max(width, len(line.label)+1)
	}
	for _, line := range b.lines {
		fmt.Fprintln(w, formatStatusLine(line, width, b.colorize))
	}
}

func formatStatusLine(line statusLine, width int, colorize bool) string {
	style, ok := statusStyles[line.kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %-*s [%s]", width, line.label+":", style.tag)
	if line.message != "" {
		sb.WriteString(" ")
		sb.WriteString(line.message)
	}
	if colorize {
		return style.color + sb.String() + ansiReset
	}
	return sb.String()
}

// shouldColorize is true for terminals unless NO_COLOR is set.
func shouldColorize(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
