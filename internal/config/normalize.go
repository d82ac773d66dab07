package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}

	c.YtDlp.Binary = strings.TrimSpace(c.YtDlp.Binary)
	c.Downloads.OutputTemplate = strings.TrimSpace(c.Downloads.OutputTemplate)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Downloads.CommandBuffer <= 0 {
		c.Downloads.CommandBuffer = defaultCommandBuffer
	}
	if c.Downloads.EventBuffer <= 0 {
		c.Downloads.EventBuffer = defaultEventBuffer
	}
	return nil
}
