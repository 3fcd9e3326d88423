package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bird-crop/internal/domain/entity"
	"bird-crop/internal/domain/port"
)

const (
	msgSummary = "🐦 Bird crop run %s finished.\n%s"
)

// Notifier отправляет обрезки и итоги прогона в Telegram-чат
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *zap.Logger
}

// NewNotifier создаёт уведомитель через стандартный API Telegram
func NewNotifier(token string, chatID int64, log *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return newNotifier(api, chatID, log), nil
}

// NewNotifierWithEndpoint создаёт уведомитель с произвольным адресом API
func NewNotifierWithEndpoint(token, endpoint string, client tgbotapi.HTTPClient, chatID int64, log *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return newNotifier(api, chatID, log), nil
}

func newNotifier(api *tgbotapi.BotAPI, chatID int64, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("telegram notifier authorized", zap.String("account", api.Self.UserName))
	return &Notifier{api: api, chatID: chatID, log: log}
}

// NotifyOutcome отправляет сохранённую обрезку с подписью-отчётом.
// Неудачные исходы не отправляются.
func (n *Notifier) NotifyOutcome(ctx context.Context, outcome entity.Outcome) error {
	_ = ctx
	if !outcome.Success() || outcome.CropPath == "" {
		return nil
	}

	photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FilePath(outcome.CropPath))
	photo.Caption = outcome.Line()
	if _, err := n.api.Send(photo); err != nil {
		return fmt.Errorf("send photo %s: %w", outcome.CropPath, err)
	}
	return nil
}

// NotifySummary отправляет итоги прогона текстом
func (n *Notifier) NotifySummary(ctx context.Context, summary entity.Summary) error {
	_ = ctx
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf(msgSummary, summary.RunID, summary.String()))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.Notifier = (*Notifier)(nil)
