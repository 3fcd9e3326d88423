package storage

import (
	"context"
	"sync"

	"bird-crop/internal/domain/port"
)

// MemoryOutcomeLog in-memory журнал результатов
type MemoryOutcomeLog struct {
	mu        sync.RWMutex
	successes []string
	failures  []string
}

// NewMemoryOutcomeLog создаёт пустой журнал в памяти
func NewMemoryOutcomeLog() *MemoryOutcomeLog {
	return &MemoryOutcomeLog{}
}

// RecordSuccess добавляет строку в список успехов
func (l *MemoryOutcomeLog) RecordSuccess(ctx context.Context, line string) error {
	l.mu.Lock()
	l.successes = append(l.successes, line)
	l.mu.Unlock()

	return nil
}

// RecordFailure добавляет строку в список неудач
func (l *MemoryOutcomeLog) RecordFailure(ctx context.Context, line string) error {
	l.mu.Lock()
	l.failures = append(l.failures, line)
	l.mu.Unlock()

	return nil
}

// Successes возвращает копию записанных успехов
func (l *MemoryOutcomeLog) Successes() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]string(nil), l.successes...)
}

// Failures возвращает копию записанных неудач
func (l *MemoryOutcomeLog) Failures() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]string(nil), l.failures...)
}

// Проверка реализации интерфейса
var _ port.OutcomeLog = (*MemoryOutcomeLog)(nil)
