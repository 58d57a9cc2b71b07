package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-clipper/internal/api"
	"github.com/heimdex/heimdex-clipper/internal/catalog"
	"github.com/heimdex/heimdex-clipper/internal/cloud"
	"github.com/heimdex/heimdex-clipper/internal/config"
	"github.com/heimdex/heimdex-clipper/internal/db"
	"github.com/heimdex/heimdex-clipper/internal/logging"
	"github.com/heimdex/heimdex-clipper/internal/media"
	"github.com/heimdex/heimdex-clipper/internal/playback"
	"github.com/heimdex/heimdex-clipper/internal/session"
	"github.com/heimdex/heimdex-clipper/internal/ui"
)

const publishKeyPrefix = "clips"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the agent: HTTP API, export runner and tray",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.FramesDir(), cfg.PreviewDir(), cfg.ExportDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting heimdex clipper", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureSecret(repo, "device_id", 16)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}
	authToken, err := ensureSecret(repo, "auth_token", 32)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  HEIMDEX CLIPPER v%-24s║\n", Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Printf("║  Exports:    %-45s ║\n", logging.SanitizePath(cfg.ExportDir()))
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	ffmpeg := media.NewRealFFmpeg(media.Config{
		FFmpegPath:    cfg.FFmpegPath(),
		FFprobePath:   cfg.FFprobePath(),
		ProbeTimeout:  cfg.TimeoutProbe(),
		FramesTimeout: cfg.TimeoutFrames(),
		TrimTimeout:   cfg.TimeoutTrim(),
		Logger:        logger,
	})

	doctor := media.NewCachedDoctor(func(ctx context.Context) (*media.Capabilities, error) {
		return media.ProbeTools(ctx, cfg.FFmpegPath(), cfg.FFprobePath(), logger)
	}, 0, logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.TimeoutDoctor())
	if caps, err := doctor.Refresh(initCtx); err != nil {
		logger.Warn("initial media tool probe failed", "error", err)
	} else if !caps.CanEdit() {
		logger.Warn("ffmpeg or ffprobe missing, media cannot be prepared or exported",
			"ffmpeg", caps.FFmpeg.Available, "ffprobe", caps.FFprobe.Available)
	}
	initCancel()

	policy := cfg.Policy()
	catalogSvc := catalog.NewService(repo, ffmpeg, policy, catalog.Dirs{
		Frames:  cfg.FramesDir(),
		Preview: cfg.PreviewDir(),
		Export:  cfg.ExportDir(),
	}, logger)
	sessions := session.NewManager(policy, catalogSvc, logging.WithComponent(logger, "session"))
	defer sessions.CloseAll()

	runner := catalog.NewRunner(catalogSvc, repo, doctor, logger)
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	runner.SetPublisher(publisher, publishKeyPrefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		CatalogService: catalogSvc,
		Sessions:       sessions,
		PlaybackServer: playback.NewServer(logger),
		Repository:     repo,
		Runner:         runner,
		Doctor:         doctor,
		Logger:         logger,
		StartTime:      startTime,
		DeviceID:       deviceID,
		Version:        Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			CatalogService: catalogSvc,
			Runner:         runner,
			Logger:         logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (cloud.Publisher, error) {
	if cfg.S3Bucket() == "" {
		return cloud.NewStubPublisher(logger), nil
	}
	p, err := cloud.NewS3Publisher(cfg.S3Bucket(), cfg.S3Region(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up clip publishing: %w", err)
	}
	logger.Info("clip publishing enabled", "bucket", cfg.S3Bucket(), "region", cfg.S3Region())
	return p, nil
}

// ensureSecret returns the stored config value for key, generating n random
// bytes hex-encoded on first run.
func ensureSecret(repo catalog.Repository, key string, n int) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, key)
	if err == nil && existing != "" {
		return existing, nil
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	value := hex.EncodeToString(buf)

	if err := repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
