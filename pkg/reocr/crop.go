package reocr

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/gardar/altoforge/pkg/alto"
)

// cropLine copies the boxed region of the page image into a fresh RGBA
// image. The region is clipped to the image bounds first; a box entirely
// outside the image yields an empty crop.
func cropLine(img image.Image, box alto.BoundingBox) (image.Image, alto.BoundingBox) {
	rect := image.Rect(box.X1, box.Y1, box.X2, box.Y2).Intersect(img.Bounds())
	clipped := alto.NewBoundingBox(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y)
	if rect.Empty() {
		return nil, clipped
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst, clipped
}
