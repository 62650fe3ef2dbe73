package config

const (
	defaultConfigPath       = "~/.config/audioextract/config.toml"
	defaultStagingDir       = "~/.cache/audioextract/staging"
	defaultLogDir           = "~/.local/share/audioextract/logs"
	defaultHistoryDB        = "~/.local/share/audioextract/history.db"
	defaultNamingTemplate   = "{name}.{ext}"
	defaultSubfolder        = "AudioExtracted"
	defaultTrackMode        = TrackModeFirst
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultProbeTimeout     = 60
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultStaleAfterHours  = 24
)

// Track selection modes.
const (
	TrackModeFirst    = "first"
	TrackModeRemember = "remember"
	TrackModePrompt   = "prompt"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			HistoryDB:  defaultHistoryDB,
		},
		Naming: Naming{
			Template: defaultNamingTemplate,
		},
		Destination: Destination{
			Subfolder: defaultSubfolder,
		},
		Tracks: Tracks{
			Mode: defaultTrackMode,
		},
		Tools: Tools{
			FFmpeg:       defaultFFmpeg,
			FFprobe:      defaultFFprobe,
			ProbeTimeout: defaultProbeTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Progress:       false,
			Errors:         true,
			Completed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			SessionEvents: true,
			RetentionDays: defaultLogRetentionDays,
		},
		Staging: Staging{
			StaleAfterHours: defaultStaleAfterHours,
		},
	}
}
