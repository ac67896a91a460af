package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

var (
	// WAVHeader is enough of a RIFF/WAVE file for content sniffing.
	WAVHeader = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00"), make([]byte, 64)...)
	// MP4Header is an ftyp box with the isom brand.
	MP4Header = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}, make([]byte, 64)...)
)

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteAudio writes a file that sniffs as audio/wav.
func WriteAudio(t testing.TB, path string) string {
	t.Helper()
	return WriteBytes(t, path, WAVHeader)
}

// WriteVideo writes a file that sniffs as video/mp4.
func WriteVideo(t testing.TB, path string) string {
	t.Helper()
	return WriteBytes(t, path, MP4Header)
}

// WriteText writes a plain-text file.
func WriteText(t testing.TB, path string) string {
	t.Helper()
	return WriteBytes(t, path, []byte("not media, just words\n"))
}
