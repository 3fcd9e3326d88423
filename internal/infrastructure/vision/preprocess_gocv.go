//go:build gocv
// +build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"bird-crop/internal/domain/entity"
)

// Prepare выполняет pyrDown, resize и blobFromImage средствами OpenCV.
func (p *Preparer) Prepare(img image.Image) (*entity.Frame, error) {
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer src.Close()

	small := gocv.NewMat()
	defer small.Close()
	gocv.PyrDown(src, &small, image.Point{}, gocv.BorderDefault)

	canonical := gocv.NewMat()
	defer canonical.Close()
	gocv.Resize(small, &canonical, image.Pt(CanonicalSize, CanonicalSize), 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(canonical, BlobScale, image.Pt(CanonicalSize, CanonicalSize),
		gocv.NewScalar(BlobMean, BlobMean, BlobMean, 0), false, false)
	defer blob.Close()

	tensor, err := matToBlob(blob)
	if err != nil {
		return nil, err
	}

	frame, err := small.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert downsampled frame: %w", err)
	}

	return &entity.Frame{
		Image:  frame,
		Width:  small.Cols(),
		Height: small.Rows(),
		Blob:   tensor,
	}, nil
}

// matToBlob копирует 4D-тензор OpenCV в Blob.
func matToBlob(m gocv.Mat) (entity.Blob, error) {
	size := m.Size()
	if len(size) != 4 {
		return entity.Blob{}, fmt.Errorf("blob must be 4D, got %v", size)
	}

	data, err := m.DataPtrFloat32()
	if err != nil {
		return entity.Blob{}, fmt.Errorf("blob data: %w", err)
	}

	blob := entity.Blob{Shape: [4]int{size[0], size[1], size[2], size[3]}, Data: make([]float32, len(data))}
	copy(blob.Data, data)
	return blob, nil
}
