package storage

import (
	"context"
	"fmt"
	"os"

	"bird-crop/internal/domain/port"
)

// FileOutcomeLog пишет результаты в два текстовых файла.
// Файл открывается на дозапись для каждой строки и сразу закрывается,
// существующие записи никогда не усекаются.
type FileOutcomeLog struct {
	SuccessPath string
	FailurePath string
}

// NewFileOutcomeLog создаёт журнал с путями к файлам успехов и неудач
func NewFileOutcomeLog(successPath, failurePath string) *FileOutcomeLog {
	return &FileOutcomeLog{SuccessPath: successPath, FailurePath: failurePath}
}

// RecordSuccess дописывает строку в файл успехов
func (l *FileOutcomeLog) RecordSuccess(ctx context.Context, line string) error {
	return appendLine(l.SuccessPath, line)
}

// RecordFailure дописывает строку в файл неудач
func (l *FileOutcomeLog) RecordFailure(ctx context.Context, line string) error {
	return appendLine(l.FailurePath, line)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.OutcomeLog = (*FileOutcomeLog)(nil)
