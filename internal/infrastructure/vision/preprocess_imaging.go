//go:build !gocv
// +build !gocv

package vision

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"bird-crop/internal/domain/entity"
)

// Prepare без OpenCV: свёртка ядром pyrDown через imaging, прореживание,
// билинейное растяжение и раскладка по плоскостям BGR.
func (p *Preparer) Prepare(img image.Image) (*entity.Frame, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	small := pyrDown(img)
	canonical := imaging.Resize(small, CanonicalSize, CanonicalSize, imaging.Linear)

	return &entity.Frame{
		Image:  small,
		Width:  small.Bounds().Dx(),
		Height: small.Bounds().Dy(),
		Blob:   buildBlob(canonical),
	}, nil
}

// pyrDown сглаживает изображение ядром 5×5 (1-4-6-4-1)/256 с зеркальной
// границей и берёт чётные пиксели. Размер результата ((w+1)/2, (h+1)/2).
func pyrDown(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()

	padded, offset := reflectBorder(src), pyrRadius
	if padded == nil {
		// слишком маленькое изображение: imaging продлевает крайние пиксели
		padded, offset = src, 0
	}

	var kernel [25]float64
	for y, ky := range pyrKernel {
		for x, kx := range pyrKernel {
			kernel[y*5+x] = ky * kx
		}
	}
	blurred := imaging.Convolve5x5(padded, kernel, &imaging.ConvolveOptions{Normalize: true})

	dw, dh := (w+1)/2, (h+1)/2
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < dw; x++ {
			off := (offset+2*y)*blurred.Stride + (offset+2*x)*4
			copy(row[x*4:x*4+4], blurred.Pix[off:off+4])
		}
	}
	return dst
}

// reflectBorder добавляет по краям pyrRadius пикселей в режиме
// BORDER_REFLECT_101 (gfedcb|abcdefgh|gfedcba). Возвращает nil, если
// сторона изображения не больше pyrRadius.
func reflectBorder(src *image.NRGBA) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w <= pyrRadius || h <= pyrRadius {
		return nil
	}

	wide := imaging.New(w+2*pyrRadius, h, color.NRGBA{})
	wide = imaging.Paste(wide, src, image.Pt(pyrRadius, 0))
	wide = imaging.Paste(wide, imaging.FlipH(imaging.Crop(src, image.Rect(1, 0, 1+pyrRadius, h))), image.Pt(0, 0))
	wide = imaging.Paste(wide, imaging.FlipH(imaging.Crop(src, image.Rect(w-1-pyrRadius, 0, w-1, h))), image.Pt(w+pyrRadius, 0))

	ww := wide.Bounds().Dx()
	out := imaging.New(ww, h+2*pyrRadius, color.NRGBA{})
	out = imaging.Paste(out, wide, image.Pt(0, pyrRadius))
	out = imaging.Paste(out, imaging.FlipV(imaging.Crop(wide, image.Rect(0, 1, ww, 1+pyrRadius))), image.Pt(0, 0))
	out = imaging.Paste(out, imaging.FlipV(imaging.Crop(wide, image.Rect(0, h-1-pyrRadius, ww, h-1))), image.Pt(0, h+pyrRadius))
	return out
}

// buildBlob раскладывает пиксели по плоскостям B, G, R и нормализует их.
func buildBlob(img *image.NRGBA) entity.Blob {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	plane := w * h
	data := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+3]
			i := y*w + x
			data[i] = normalize(px[2])
			data[plane+i] = normalize(px[1])
			data[2*plane+i] = normalize(px[0])
		}
	}

	return entity.Blob{Shape: [4]int{1, 3, h, w}, Data: data}
}

func normalize(v uint8) float32 {
	return (float32(v) - BlobMean) * BlobScale
}
