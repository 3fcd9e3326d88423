package entity

import (
	"image"
	"math"
)

// Rect представляет прямоугольник обрезки в пикселях уменьшенного изображения
type Rect struct {
	MinX int // левая граница (включительно)
	MinY int // верхняя граница (включительно)
	MaxX int // правая граница (не включительно)
	MaxY int // нижняя граница (не включительно)
}

// Denormalize переводит нормализованную рамку в пиксели изображения w×h.
// Дробная часть отбрасывается.
func Denormalize(box NormBox, width, height int) Rect {
	return Rect{
		MinX: truncate(box.X1, width),
		MinY: truncate(box.Y1, height),
		MaxX: truncate(box.X2, width),
		MaxY: truncate(box.Y2, height),
	}
}

func truncate(v float32, dim int) int {
	return int(math.Trunc(float64(v) * float64(dim)))
}

// Pad расширяет прямоугольник на margin пикселей с каждой стороны.
func (r Rect) Pad(margin int) Rect {
	return Rect{
		MinX: r.MinX - margin,
		MinY: r.MinY - margin,
		MaxX: r.MaxX + margin,
		MaxY: r.MaxY + margin,
	}
}

// Clamp ограничивает каждую координату диапазоном [0, width] / [0, height].
func (r Rect) Clamp(width, height int) Rect {
	return Rect{
		MinX: clamp(r.MinX, width),
		MinY: clamp(r.MinY, height),
		MaxX: clamp(r.MaxX, width),
		MaxY: clamp(r.MaxY, height),
	}
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// Dx возвращает ширину прямоугольника
func (r Rect) Dx() int { return r.MaxX - r.MinX }

// Dy возвращает высоту прямоугольника
func (r Rect) Dy() int { return r.MaxY - r.MinY }

// Empty сообщает, что у прямоугольника нулевая площадь.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Image возвращает прямоугольник в виде image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.MinX, r.MinY, r.MaxX, r.MaxY)
}
