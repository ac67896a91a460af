package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// AvailableEncoders runs `ffmpeg -hide_banner -encoders` and returns the set
// of encoder names it lists.
func AvailableEncoders(ctx context.Context, binary string) (map[string]struct{}, error) {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return parseEncoders(out), nil
}

// parseEncoders reads the table printed after the "------" separator. Each
// row is "<flags> <name> <description>".
func parseEncoders(out []byte) map[string]struct{} {
	encoders := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			if strings.HasPrefix(line, "------") {
				inTable = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		encoders[fields[1]] = struct{}{}
	}
	return encoders
}

// MissingEncoders reports which of the profile's encoders are absent.
func MissingEncoders(available map[string]struct{}, p Profile) []string {
	var missing []string
	for _, name := range p.Encoders() {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
