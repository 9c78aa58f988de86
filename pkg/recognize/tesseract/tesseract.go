// Package tesseract provides a Tesseract-backed line recognizer using the
// gosseract client, configured for single-line page segmentation.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/altoforge/pkg/alto"
	"github.com/gardar/altoforge/pkg/recognize"
)

// Recognizer wraps one gosseract client. The client binds a single image
// per recognition call, so a Recognizer must not be shared between
// concurrent callers.
type Recognizer struct {
	client *gosseract.Client
}

// New creates a recognizer for the given Tesseract language model (for
// example "eng" or "deu"), in single-line segmentation mode.
func New(lang string) (*Recognizer, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting language %q: %w", lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	return &Recognizer{client: client}, nil
}

// RecognizeLine binds the cropped line image and returns the recognized
// words with their crop-local bounding boxes.
func (r *Recognizer) RecognizeLine(ctx context.Context, img image.Image) ([]recognize.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding line image: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("binding line image: %w", err)
	}

	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognizing line: %w", err)
	}

	words := make([]recognize.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, recognize.Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box:        alto.NewBoundingBox(b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y),
		})
	}
	return words, nil
}

// Close releases the underlying Tesseract client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}
