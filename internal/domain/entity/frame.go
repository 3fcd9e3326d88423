package entity

import "image"

// Blob входной тензор детектора в формате NCHW, каналы в порядке BGR.
type Blob struct {
	Shape [4]int
	Data  []float32
}

// Frame хранит уменьшенное изображение и подготовленный для сети тензор.
// Width и Height относятся к уменьшенному изображению, в его координатах
// строится прямоугольник обрезки.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
	Blob   Blob
}
