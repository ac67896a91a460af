// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Validator: rejects encoder outputs that carry no audio or video stream
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
