// Package daemonrun boots the snag daemon runtime: logging, job store,
// yt-dlp client, download engine, and IPC server. It is shared by the snagd
// binary and the snag CLI's daemon run command.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"snag/internal/config"
	"snag/internal/daemon"
	"snag/internal/engine"
	"snag/internal/ipc"
	"snag/internal/logging"
	"snag/internal/queue"
	"snag/internal/ytdlp"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when non-empty.
	LogLevel string
}

// Run starts the snag daemon runtime loop and blocks until a signal, an IPC
// stop request, or cmdCtx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "snagd.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logToolSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "snagd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	client, err := ytdlp.New(cfg.YtDlpBinary(), cfg.OutputTemplate(), logger)
	if err != nil {
		return fmt.Errorf("create yt-dlp client: %w", err)
	}

	eng := engine.New(client, engine.Options{
		Concurrency:   cfg.Downloads.MaxConcurrent,
		CommandBuffer: cfg.Downloads.CommandBuffer,
		EventBuffer:   cfg.Downloads.EventBuffer,
		Logger:        logger,
	})

	d, err := daemon.New(cfg, store, logger, eng)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("snag daemon shutting down")
	d.Stop()
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logToolSnapshot(logger *slog.Logger, cfg *config.Config) {
	binary := cfg.YtDlpBinary()
	logger.Info("tool snapshot",
		logging.String("ytdlp_binary", binary),
		logging.Bool("ytdlp_available", binaryAvailable(binary)),
		logging.String("download_dir", cfg.Paths.DownloadDir),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
