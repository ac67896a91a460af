package watch

import (
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Event names accepted in watch job configuration.
const (
	EventCreate = "create"
	EventWrite  = "write"
	EventRemove = "remove"
	EventRename = "rename"
	EventChmod  = "chmod"
)

var opNames = []struct {
	op   fsnotify.Op
	name string
}{
	{fsnotify.Create, EventCreate},
	{fsnotify.Write, EventWrite},
	{fsnotify.Remove, EventRemove},
	{fsnotify.Rename, EventRename},
	{fsnotify.Chmod, EventChmod},
}

// OpNames returns the configuration names for every bit set in op.
func OpNames(op fsnotify.Op) []string {
	var names []string
	for _, entry := range opNames {
		if op.Has(entry.op) {
			names = append(names, entry.name)
		}
	}
	return names
}

// Matches reports whether any bit of op is listed in events.
func Matches(events []string, op fsnotify.Op) bool {
	for _, name := range OpNames(op) {
		if slices.Contains(events, name) {
			return true
		}
	}
	return false
}

// Descriptor renders op as the event descriptor passed to the converter,
// e.g. "create|write".
func Descriptor(op fsnotify.Op) string {
	return strings.Join(OpNames(op), "|")
}
