package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	app "bird-crop/internal/application"
	"bird-crop/internal/infrastructure/imagefile"
	"bird-crop/internal/infrastructure/vision"
	"bird-crop/internal/logger"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "BIRDCROP"

// Ключи настроек
const (
	KeyConfigFile     = "config"
	KeyDirectory      = "directory"
	KeyConfidence     = "confidence"
	KeyCropDir        = "crop_dir"
	KeySuccessLog     = "success_log"
	KeyFailureLog     = "failure_log"
	KeyPrototxt       = "prototxt"
	KeyCaffeModel     = "caffemodel"
	KeySelect         = "select"
	KeyNaming         = "naming"
	KeyFormat         = "format"
	KeyLogLevel       = "log_level"
	KeyLogFile        = "log_file"
	KeyLogMaxSizeMB   = "log_max_size_mb"
	KeyLogMaxBackups  = "log_max_backups"
	KeyDebug          = "debug"
	KeyTelegramToken  = "telegram_token"
	KeyTelegramChatID = "telegram_chat_id"
)

type Config struct {
	Directory  string  `mapstructure:"directory"`
	Confidence float64 `mapstructure:"confidence"`

	CropDir    string `mapstructure:"crop_dir"`
	SuccessLog string `mapstructure:"success_log"`
	FailureLog string `mapstructure:"failure_log"`

	Prototxt   string `mapstructure:"prototxt"`
	CaffeModel string `mapstructure:"caffemodel"`

	Select string `mapstructure:"select"`
	Naming string `mapstructure:"naming"`
	Format string `mapstructure:"format"`

	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	Debug         bool   `mapstructure:"debug"`

	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID int64  `mapstructure:"telegram_chat_id"`
}

// SetDefaults регистрирует значения по умолчанию
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDirectory, "")
	v.SetDefault(KeyConfidence, 0.2)
	v.SetDefault(KeyCropDir, "cropped")
	v.SetDefault(KeySuccessLog, "successes.txt")
	v.SetDefault(KeyFailureLog, "failures.txt")
	v.SetDefault(KeyPrototxt, vision.DefaultPrototxt)
	v.SetDefault(KeyCaffeModel, vision.DefaultCaffeModel)
	v.SetDefault(KeySelect, string(app.SelectFirst))
	v.SetDefault(KeyNaming, string(app.NamingBase))
	v.SetDefault(KeyFormat, string(imagefile.FormatPNG))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyTelegramToken, "")
	v.SetDefault(KeyTelegramChatID, 0)
}

// Load собирает настройки: значения по умолчанию, .env, переменные
// окружения BIRDCROP_*, файл конфигурации и флаги, уже привязанные к v.
func Load(v *viper.Viper) (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyTelegramToken, EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv(KeyTelegramChatID, EnvPrefix+"_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет настройки. Порог уверенности намеренно не ограничен:
// значения вне [0,1] пропускают все детекции или ни одной.
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.New("input directory is required")
	}
	if c.CropDir == "" {
		return errors.New("crop directory must not be empty")
	}
	if c.SuccessLog == "" || c.FailureLog == "" {
		return errors.New("success and failure log paths are required")
	}
	if _, err := app.ParseSelectionPolicy(c.Select); err != nil {
		return err
	}
	if _, err := app.ParseNamingPolicy(c.Naming); err != nil {
		return err
	}
	if _, err := imagefile.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	return nil
}

// TelegramEnabled сообщает, включены ли уведомления в Telegram
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// TelegramIncomplete сообщает, что задан только токен или только чат.
// Уведомления в этом случае выключены.
func (c *Config) TelegramIncomplete() bool {
	return (c.TelegramToken == "") != (c.TelegramChatID == 0)
}

// LoggerOptions возвращает настройки диагностического журнала
func (c *Config) LoggerOptions() logger.Options {
	level := c.LogLevel
	if c.Debug {
		level = "debug"
	}
	return logger.Options{
		Level:       level,
		File:        c.LogFile,
		Development: c.Debug,
		MaxSizeMB:   c.LogMaxSizeMB,
		MaxBackups:  c.LogMaxBackups,
	}
}

// Options возвращает параметры прогона для сервиса обработки
func (c *Config) Options(runID string) app.Options {
	selection, _ := app.ParseSelectionPolicy(c.Select)
	naming, _ := app.ParseNamingPolicy(c.Naming)
	return app.Options{
		RunID:     runID,
		Threshold: c.Confidence,
		Selection: selection,
		Naming:    naming,
	}
}

// CropFormat возвращает формат файлов обрезок
func (c *Config) CropFormat() imagefile.Format {
	f, _ := imagefile.ParseFormat(c.Format)
	return f
}
