package app

import (
	"fmt"

	"bird-crop/internal/domain/entity"
)

// CropPadding отступ вокруг рамки птицы в пикселях
const CropPadding = 20

// SelectionPolicy правило выбора одной детекции из нескольких
type SelectionPolicy string

const (
	SelectFirst   SelectionPolicy = "first"   // Первая по порядку модели
	SelectHighest SelectionPolicy = "highest" // Максимальная уверенность
)

// ParseSelectionPolicy разбирает значение из конфигурации.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch p := SelectionPolicy(s); p {
	case SelectFirst, SelectHighest:
		return p, nil
	case "":
		return SelectFirst, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q", s)
	}
}

// Pick выбирает детекцию согласно правилу. При равной уверенности
// SelectHighest оставляет более раннюю.
func (p SelectionPolicy) Pick(birds []entity.Detection) (entity.Detection, bool) {
	if len(birds) == 0 {
		return entity.Detection{}, false
	}
	if p != SelectHighest {
		return birds[0], true
	}

	best := birds[0]
	for _, d := range birds[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}

// FilterBirds оставляет только детекции целевого класса, сохраняя порядок.
func FilterBirds(detections []entity.Detection) []entity.Detection {
	birds := make([]entity.Detection, 0, len(detections))
	for _, d := range detections {
		if d.IsBird() {
			birds = append(birds, d)
		}
	}
	return birds
}

// Verdict решение по одному кадру
type Verdict struct {
	Kind       entity.OutcomeKind
	Confidence float32
	Rect       entity.Rect
}

// SelectBird применяет правило выбора, порог и строит прямоугольник обрезки
// в координатах кадра width×height. Порог проходит только строго большая
// уверенность.
func SelectBird(detections []entity.Detection, policy SelectionPolicy, threshold float64, width, height int) Verdict {
	best, ok := policy.Pick(FilterBirds(detections))
	if !ok {
		return Verdict{Kind: entity.OutcomeNoDetection}
	}

	v := Verdict{Confidence: best.Confidence}
	if !(float64(best.Confidence) > threshold) {
		v.Kind = entity.OutcomeBelowThreshold
		return v
	}

	v.Rect = entity.Denormalize(best.Box, width, height).Pad(CropPadding).Clamp(width, height)
	if v.Rect.Empty() {
		v.Kind = entity.OutcomeEmptyCrop
		return v
	}

	v.Kind = entity.OutcomeAccepted
	return v
}
