package deps

import "movconv/internal/config"

// Requirements lists the binaries the converter executes for cfg. ffprobe is
// only required when outputs are validated.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "Required for transcoding",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.ProbeBinary,
			Description: "Validates encoder output",
			Optional:    !cfg.FFmpeg.ValidateProbe,
		},
	}
}
