package ffmpeg

import "regexp"

// Pre-compiled regexes that turn ffmpeg stderr into a short remediation hint.
// Checked in order; the first match wins.
var diagnostics = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder \S+ not found`), "ffmpeg build lacks the configured encoder"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found|could not find codec parameters`), "source is truncated or not decodable"},
	{regexp.MustCompile(`(?i)Permission denied`), "check permissions on the source and output directories"},
	{regexp.MustCompile(`(?i)No space left on device`), "output filesystem is full"},
	{regexp.MustCompile(`(?i)already exists\. Exiting`), "destination exists and overwrite is disabled"},
	{regexp.MustCompile(`(?i)Output file #?\d* does not contain any stream|Output file is empty`), "source has no audio or video stream ffmpeg can map"},
	{regexp.MustCompile(`(?i)No such file or directory`), "source disappeared before encoding"},
}

// Diagnose returns a hint for the first known failure pattern in stderr, or "".
func Diagnose(stderr string) string {
	for _, d := range diagnostics {
		if d.re.MatchString(stderr) {
			return d.hint
		}
	}
	return ""
}
