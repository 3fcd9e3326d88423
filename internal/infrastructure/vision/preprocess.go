package vision

import (
	"errors"

	"bird-crop/internal/domain/port"
)

const (
	// CanonicalSize сторона квадратного входа сети
	CanonicalSize = 300
	// BlobScale множитель нормализации (≈ 1/127.5)
	BlobScale = 0.007843
	// BlobMean вычитаемое среднее для каждого канала
	BlobMean = 127.5
)

// ErrEmptyImage возвращается для изображения нулевого размера.
var ErrEmptyImage = errors.New("empty image")

// pyrKernel ядро 1-4-6-4-1 пирамидального уменьшения, pyrRadius его радиус
var pyrKernel = [5]float64{1, 4, 6, 4, 1}

const pyrRadius = 2

// Preparer строит кадр для MobileNet-SSD: pyrDown, растяжение до 300×300,
// тензор NCHW в порядке BGR.
type Preparer struct{}

// NewPreparer создаёт подготовщик кадров.
func NewPreparer() *Preparer {
	return &Preparer{}
}

var _ port.FramePreparer = (*Preparer)(nil)
