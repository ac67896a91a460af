package ffmpeg

import "movconv/internal/config"

// Profile holds the fixed encoder settings applied to every job.
type Profile struct {
	VideoCodec   string
	VideoProfile string
	AudioCodec   string
	LogLevel     string
	Overwrite    bool
	ExtraArgs    []string
}

// DefaultProfile returns ProRes (profile 3) video with 16-bit big-endian PCM audio.
func DefaultProfile() Profile {
	return Profile{
		VideoCodec:   "prores_ks",
		VideoProfile: "3",
		AudioCodec:   "pcm_s16be",
		LogLevel:     "error",
		Overwrite:    true,
	}
}

// ProfileFromConfig builds a Profile from the [ffmpeg] section.
func ProfileFromConfig(cfg *config.Config) Profile {
	if cfg == nil {
		return DefaultProfile()
	}
	return Profile{
		VideoCodec:   cfg.FFmpeg.VideoCodec,
		VideoProfile: cfg.FFmpeg.VideoProfile,
		AudioCodec:   cfg.FFmpeg.AudioCodec,
		LogLevel:     cfg.FFmpeg.LogLevel,
		Overwrite:    cfg.FFmpeg.Overwrite,
		ExtraArgs:    append([]string(nil), cfg.FFmpeg.ExtraArgs...),
	}
}

// Encoders lists the ffmpeg encoders this profile needs.
func (p Profile) Encoders() []string {
	return []string{p.VideoCodec, p.AudioCodec}
}
