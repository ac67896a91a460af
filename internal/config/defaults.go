package config

const (
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultVideoCodec      = "prores_ks"
	defaultVideoProfile    = "3"
	defaultAudioCodec      = "pcm_s16be"
	defaultOutputSuffix    = ".mov"
	defaultLogLevel        = "error"
	defaultWorkers         = 1
	defaultPathMode        = PathModeRelative
	defaultMissingPath     = MissingPathSkip
	defaultHistoryPath     = "~/.local/share/movconv/history.db"
	defaultHistoryKeepRuns = 500
	defaultLogFormat       = "console"
	defaultAppLogLevel     = "info"
	defaultWatchPidFile    = "~/.local/share/movconv/watch.pid"
	defaultWatchDebounceMS = 2000
	defaultConfigPath      = "~/.config/movconv/config.toml"
)

// Path mapping modes.
const (
	// PathModeRelative re-roots files using path relativization.
	PathModeRelative = "relative"
	// PathModeLiteral strips the watched root by character count.
	PathModeLiteral = "literal"
)

// Policies for a changed path that does not exist.
const (
	MissingPathSkip = "skip"
	MissingPathFail = "fail"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			ProbeBinary:   defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			VideoProfile:  defaultVideoProfile,
			AudioCodec:    defaultAudioCodec,
			OutputSuffix:  defaultOutputSuffix,
			LogLevel:      defaultLogLevel,
			Overwrite:     true,
			ValidateProbe: false,
		},
		Convert: Convert{
			Workers:     defaultWorkers,
			PathMode:    defaultPathMode,
			FailOnError: true,
		},
		Discovery: Discovery{
			MissingPath: defaultMissingPath,
		},
		History: History{
			Enabled:  true,
			Path:     defaultHistoryPath,
			KeepRuns: defaultHistoryKeepRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultAppLogLevel,
		},
		Watch: Watch{
			PidFile:    defaultWatchPidFile,
			DebounceMS: defaultWatchDebounceMS,
		},
	}
}
