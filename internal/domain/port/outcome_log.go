package port

import "context"

// OutcomeLog интерфейс журнала результатов
type OutcomeLog interface {
	// RecordSuccess добавляет строку в журнал успехов
	RecordSuccess(ctx context.Context, line string) error

	// RecordFailure добавляет строку в журнал неудач
	RecordFailure(ctx context.Context, line string) error
}
