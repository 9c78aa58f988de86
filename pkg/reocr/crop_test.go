package reocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gardar/altoforge/pkg/alto"
)

func TestCropLine(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	src.Set(50, 60, color.RGBA{R: 255, A: 255})

	crop, box := cropLine(src, alto.NewBoundingBox(40, 50, 80, 90))
	require.NotNil(t, crop)
	require.Equal(t, alto.NewBoundingBox(40, 50, 80, 90), box)
	require.Equal(t, 40, crop.Bounds().Dx())
	require.Equal(t, 40, crop.Bounds().Dy())

	// The marked page pixel lands at the crop-local offset.
	r, _, _, _ := crop.At(10, 10).RGBA()
	require.NotZero(t, r)
}

func TestCropLineClipsToBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))

	crop, box := cropLine(src, alto.NewBoundingBox(80, 80, 150, 150))
	require.NotNil(t, crop)
	require.Equal(t, alto.NewBoundingBox(80, 80, 100, 100), box)
	require.Equal(t, 20, crop.Bounds().Dx())
}

func TestCropLineOutsideImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))

	crop, _ := cropLine(src, alto.NewBoundingBox(200, 200, 300, 300))
	require.Nil(t, crop)
}
