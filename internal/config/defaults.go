package config

const (
	defaultDownloadDir    = "~/Downloads/snag"
	defaultLogDir         = "~/.local/share/snag/logs"
	defaultSocketPath     = "~/.local/share/snag/snagd.sock"
	defaultMaxConcurrent  = 2
	defaultOutputTemplate = "%(title)s.%(ext)s"
	defaultCommandBuffer  = 64
	defaultEventBuffer    = 256
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			SocketPath:  defaultSocketPath,
		},
		Downloads: Downloads{
			MaxConcurrent:  defaultMaxConcurrent,
			OutputTemplate: defaultOutputTemplate,
			CommandBuffer:  defaultCommandBuffer,
			EventBuffer:    defaultEventBuffer,
		},
		YtDlp: YtDlp{
			Binary: "yt-dlp",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
