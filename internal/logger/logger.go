package logger

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options настройки диагностического журнала
type Options struct {
	Level       string // debug, info, warn, error
	File        string // путь к JSON-журналу с ротацией, пусто = только stderr
	Development bool   // человекочитаемый формат с цветными уровнями
	MaxSizeMB   int    // размер файла до ротации, 0 = 10 МБ
	MaxBackups  int    // число старых файлов, 0 = 3
}

// NewRunID возвращает идентификатор прогона
func NewRunID() string {
	return uuid.NewString()
}

// New строит zap-логгер: консоль в stderr и, при заданном File,
// дополнительный JSON-поток в файл с ротацией lumberjack.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = lvl
	}

	consoleCfg := zap.NewProductionEncoderConfig()
	if opts.Development {
		consoleCfg = zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	consoleCfg.TimeKey = "timestamp"
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	if opts.File != "" {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "timestamp"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(fileSink(opts)), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// ForRun добавляет к логгеру идентификатор прогона
func ForRun(log *zap.Logger, runID string) *zap.Logger {
	return log.With(zap.String("run_id", runID))
}

func fileSink(opts Options) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
