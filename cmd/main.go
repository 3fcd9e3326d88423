package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bird-crop/config"
	telegram "bird-crop/internal/api"
	"bird-crop/internal/container"
	"bird-crop/internal/domain/port"
	"bird-crop/internal/infrastructure/imagefile"
	"bird-crop/internal/infrastructure/storage"
	"bird-crop/internal/infrastructure/vision"
	"bird-crop/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "bird-crop",
		Short:        "Detect birds in a directory of images and save padded crops",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringP("directory", "d", "", "Path to directory of input images")
	flags.Float64P("confidence", "c", 0.2, "Min. probability to filter weak detections")
	flags.String("config", "", "Path to a YAML config file")
	flags.String("crop-dir", "cropped", "Directory for cropped birds")
	flags.String("success-log", "successes.txt", "File that collects successful detections")
	flags.String("failure-log", "failures.txt", "File that collects failed detections")
	flags.String("prototxt", vision.DefaultPrototxt, "Caffe network definition")
	flags.String("caffemodel", vision.DefaultCaffeModel, "Caffe network weights")
	flags.String("select", "first", "Detection selection: first (model order) or highest (max confidence)")
	flags.String("naming", "base", "Crop file naming: base (name before first dot) or full (whole file name)")
	flags.String("format", "png", "Crop file format: png or webp (lossless)")
	flags.String("log-level", "info", "Diagnostic log level: debug, info, warn, error")
	flags.String("log-file", "", "Rotating JSON diagnostic log file")
	flags.Int("log-max-size", 10, "Diagnostic log size in MB before rotation")
	flags.Int("log-max-backups", 3, "Rotated diagnostic log files to keep")
	flags.Bool("debug", false, "Human-readable debug logging")

	bindings := map[string]string{
		config.KeyDirectory:     "directory",
		config.KeyConfidence:    "confidence",
		config.KeyConfigFile:    "config",
		config.KeyCropDir:       "crop-dir",
		config.KeySuccessLog:    "success-log",
		config.KeyFailureLog:    "failure-log",
		config.KeyPrototxt:      "prototxt",
		config.KeyCaffeModel:    "caffemodel",
		config.KeySelect:        "select",
		config.KeyNaming:        "naming",
		config.KeyFormat:        "format",
		config.KeyLogLevel:      "log-level",
		config.KeyLogFile:       "log-file",
		config.KeyLogMaxSizeMB:  "log-max-size",
		config.KeyLogMaxBackups: "log-max-backups",
		config.KeyDebug:         "debug",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	return cmd
}

func run(ctx context.Context, v *viper.Viper, stdout io.Writer) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	baseLog, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = baseLog.Sync() }()

	runID := logger.NewRunID()
	log := logger.ForRun(baseLog, runID)

	// Модель загружается один раз на весь прогон
	detector, err := vision.NewCaffeDetector(cfg.Prototxt, cfg.CaffeModel)
	if err != nil {
		log.Error("failed to load model", zap.String("prototxt", cfg.Prototxt), zap.String("caffemodel", cfg.CaffeModel), zap.Error(err))
		return fmt.Errorf("failed to load model: %w", err)
	}
	defer detector.Close()

	var notifier port.Notifier
	if cfg.TelegramIncomplete() {
		log.Warn("telegram notifications disabled: telegram_token and telegram_chat_id must be set together")
	}
	if cfg.TelegramEnabled() {
		n, err := telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			notifier = n
		}
	}

	appContainer := container.New(
		detector,
		vision.NewPreparer(),
		imagefile.NewStore(cfg.CropDir, cfg.CropFormat()),
		storage.NewFileOutcomeLog(cfg.SuccessLog, cfg.FailureLog),
		notifier,
		cfg.Options(runID),
		stdout,
		log,
	)

	if _, err := appContainer.BatchService.Run(ctx, cfg.Directory); err != nil {
		log.Error("batch failed", zap.Error(err))
		return err
	}
	return nil
}
