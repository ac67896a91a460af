package ffmpeg

// BuildArgs returns the ffmpeg arguments (without the binary) that transcode
// src into dst:
//
//	-hide_banner -loglevel error -y -i SRC -c:v prores_ks -profile:v 3 -c:a pcm_s16be DST
func BuildArgs(p Profile, src, dst string) []string {
	args := make([]string, 0, 16+len(p.ExtraArgs))

	args = append(args, "-hide_banner", "-loglevel", p.LogLevel)
	if p.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	args = append(args, "-i", src)

	args = append(args, "-c:v", p.VideoCodec)
	if p.VideoProfile != "" {
		args = append(args, "-profile:v", p.VideoProfile)
	}
	args = append(args, "-c:a", p.AudioCodec)

	args = append(args, p.ExtraArgs...)
	return append(args, dst)
}
