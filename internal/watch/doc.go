// Package watch runs the converter in response to filesystem events.
//
// Each configured job watches a directory tree recursively through fsnotify.
// Events are filtered by the job's event names, debounced per path, and then
// handed to the converter with the job's watch and output roots. A pid file
// guarded by an advisory lock keeps a single watcher per host, and Stop
// signals that watcher to exit.
package watch
