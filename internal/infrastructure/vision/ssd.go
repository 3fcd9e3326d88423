package vision

import (
	"errors"
	"fmt"
	"os"

	"bird-crop/internal/domain/entity"
)

const (
	// DefaultPrototxt описание сети MobileNet-SSD
	DefaultPrototxt = "MobileNetSSD_deploy.prototxt.txt"
	// DefaultCaffeModel веса сети MobileNet-SSD
	DefaultCaffeModel = "MobileNetSSD_deploy.caffemodel"

	// ssdFields число значений в строке выхода: batch, class, conf, x1, y1, x2, y2
	ssdFields = 7
)

var (
	// ErrModelMissing файл модели не найден или не является файлом.
	ErrModelMissing = errors.New("model file is missing")
	// ErrDetectorDisabled сборка без тега gocv.
	ErrDetectorDisabled = errors.New("gocv build tag is not enabled")
)

// ParseSSDOutput разбирает плоский выход detection_out формы [1,1,N,7].
// Неполная последняя строка отбрасывается.
func ParseSSDOutput(raw []float32) []entity.Detection {
	n := len(raw) / ssdFields
	detections := make([]entity.Detection, 0, n)
	for i := 0; i < n; i++ {
		row := raw[i*ssdFields : (i+1)*ssdFields]
		detections = append(detections, entity.Detection{
			ClassID:    int(row[1]),
			Confidence: row[2],
			Box:        entity.NormBox{X1: row[3], Y1: row[4], X2: row[5], Y2: row[6]},
		})
	}
	return detections
}

// checkModelFiles проверяет, что оба файла модели существуют.
func checkModelFiles(paths ...string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrModelMissing, p, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrModelMissing, p)
		}
	}
	return nil
}
