// Package recognize defines the adapter contract for plugging line-level
// OCR engines into ALTO post-processing. The interface is intentionally
// small so recognizers can be backed by native libraries (Tesseract) or
// remote APIs (Google Document AI) without leaking provider concerns into
// callers.
package recognize

import (
	"context"
	"image"

	"github.com/gardar/altoforge/pkg/alto"
)

// Word is a single recognized token from one text line, in left-to-right
// reading order as produced by the engine. The bounding box is local to the
// cropped line image handed to the recognizer.
type Word struct {
	Text       string
	Confidence float64 // 0-100
	Box        alto.BoundingBox
}

// LineRecognizer recognizes the words on a cropped image of exactly one
// text line. Implementations hold one bound image at a time and are not
// safe for concurrent use: callers that parallelize across documents must
// give each worker its own instance.
//
// A line where nothing is recognized yields an empty slice, not an error.
type LineRecognizer interface {
	RecognizeLine(ctx context.Context, img image.Image) ([]Word, error)
	Close() error
}
