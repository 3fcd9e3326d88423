//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"bird-crop/internal/domain/entity"
	"bird-crop/internal/domain/port"
)

// CaffeDetector запускает MobileNet-SSD через модуль dnn OpenCV.
type CaffeDetector struct {
	Prototxt   string
	CaffeModel string
	net        gocv.Net
}

// NewCaffeDetector загружает сеть один раз. Отсутствие файлов модели
// или пустая сеть считаются фатальными.
func NewCaffeDetector(prototxt, caffeModel string) (*CaffeDetector, error) {
	if err := checkModelFiles(prototxt, caffeModel); err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromCaffe(prototxt, caffeModel)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("failed to load caffe model %s", caffeModel)
	}

	return &CaffeDetector{
		Prototxt:   prototxt,
		CaffeModel: caffeModel,
		net:        net,
	}, nil
}

// Detect прогоняет тензор кадра через сеть. Вызов блокирующий, без таймаута.
func (d *CaffeDetector) Detect(ctx context.Context, frame *entity.Frame) ([]entity.Detection, error) {
	_ = ctx
	if frame == nil || len(frame.Blob.Data) == 0 {
		return nil, errors.New("empty input blob")
	}

	blob, err := blobToMat(frame.Blob)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	return parseOutputMat(out)
}

// blobToMat переносит тензор кадра в 4D-матрицу CV_32F.
func blobToMat(b entity.Blob) (gocv.Mat, error) {
	m := gocv.NewMatWithSizes(b.Shape[:], gocv.MatTypeCV32F)

	data, err := m.DataPtrFloat32()
	if err != nil {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("blob data: %w", err)
	}
	if len(data) != len(b.Data) {
		m.Close()
		return gocv.Mat{}, fmt.Errorf("blob size mismatch: %d != %d", len(data), len(b.Data))
	}
	copy(data, b.Data)
	return m, nil
}

// parseOutputMat разбирает выход detection_out [1,1,N,7].
func parseOutputMat(out gocv.Mat) ([]entity.Detection, error) {
	if out.Empty() {
		return nil, errors.New("empty network output")
	}

	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("network output: %w", err)
	}

	return ParseSSDOutput(raw), nil
}

// Close освобождает сеть.
func (d *CaffeDetector) Close() error {
	return d.net.Close()
}

var _ port.BirdDetector = (*CaffeDetector)(nil)
