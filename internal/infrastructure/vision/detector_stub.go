//go:build !gocv
// +build !gocv

package vision

import (
	"context"

	"bird-crop/internal/domain/entity"
	"bird-crop/internal/domain/port"
)

// CaffeDetector заглушка детектора (без OpenCV).
type CaffeDetector struct {
	Prototxt   string
	CaffeModel string
}

// NewCaffeDetector проверяет файлы модели и возвращает ErrDetectorDisabled,
// если сборка без тега gocv.
func NewCaffeDetector(prototxt, caffeModel string) (*CaffeDetector, error) {
	if err := checkModelFiles(prototxt, caffeModel); err != nil {
		return nil, err
	}
	return nil, ErrDetectorDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *CaffeDetector) Detect(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
	_ = ctx
	_ = frame
	return nil, ErrDetectorDisabled
}

// Close ничего не делает.
func (d *CaffeDetector) Close() error {
	return nil
}

var _ port.BirdDetector = (*CaffeDetector)(nil)
