package port

import (
	"image"

	"bird-crop/internal/domain/entity"
)

// FramePreparer готовит изображение для детектора
type FramePreparer interface {
	// Prepare уменьшает изображение вдвое и строит входной тензор сети
	Prepare(img image.Image) (*entity.Frame, error)
}
