package port

import (
	"context"

	"bird-crop/internal/domain/entity"
)

// Notifier интерфейс внешних уведомлений о ходе обработки
type Notifier interface {
	// NotifyOutcome сообщает об обработанном изображении
	NotifyOutcome(ctx context.Context, outcome entity.Outcome) error

	// NotifySummary сообщает итоги прогона
	NotifySummary(ctx context.Context, summary entity.Summary) error
}
