// Package ffmpeg builds and runs the encoder invocation that turns one source
// file into a ProRes/PCM QuickTime intermediate.
//
// Key types:
//   - Profile: codec, log level, and overwrite flags taken from config
//   - Runner: executes ffmpeg per job and verifies the output
//   - TranscodeError: per-file failure carrying exit code, stderr, and a hint
//
// The runner never retries. A non-zero exit, a missing or empty destination,
// or a failed ffprobe validation all surface as a TranscodeError so the
// converter can record the file as failed and continue the batch.
package ffmpeg
