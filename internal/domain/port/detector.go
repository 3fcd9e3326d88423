package port

import (
	"context"

	"bird-crop/internal/domain/entity"
)

// BirdDetector интерфейс детектора объектов
type BirdDetector interface {
	// Detect прогоняет подготовленный кадр через сеть и возвращает все детекции
	// в порядке, в котором их выдала модель
	Detect(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error)
}
