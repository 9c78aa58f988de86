// Package reocr implements the re-OCR reconciliation engine: it re-runs
// recognition on a page image using the geometric layout already declared
// in an ALTO document, then rewrites each TextLine's word and space
// children with fresh text, geometry, and confidence values.
package reocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/gardar/altoforge/pkg/alto"
	"github.com/gardar/altoforge/pkg/recognize"
)

// Stats summarizes one document's reconciliation pass.
type Stats struct {
	LinesTotal      int
	LinesRecognized int
	LinesSkipped    int // below the confidence threshold
	WordsWritten    int

	// OriginalText and RecognizedText hold the aggregated per-line text
	// pairs when Config.CollectText is set. Threshold-skipped lines emit
	// their original text on both sides.
	OriginalText   string
	RecognizedText string
}

// Engine drives re-OCR for documents. It owns one recognizer instance, so
// an Engine processes one document at a time; parallelism across documents
// needs one Engine per worker.
type Engine struct {
	rec recognize.LineRecognizer
	cfg Config
	log *slog.Logger
}

// New creates an engine around the given line recognizer.
func New(rec recognize.LineRecognizer, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rec: rec, cfg: cfg, log: log}
}

// ProcessDocument re-recognizes every TextLine of doc against the page
// image and rewrites the line children in place. The caller persists the
// mutated document.
func (e *Engine) ProcessDocument(ctx context.Context, doc *alto.Document, img image.Image) (*Stats, error) {
	lines, err := doc.TextLines()
	if err != nil {
		return nil, err
	}

	if e.cfg.GroundTruthDir != "" {
		if err := os.MkdirAll(e.cfg.GroundTruthDir, 0755); err != nil {
			return nil, fmt.Errorf("creating ground-truth dir: %w", err)
		}
	}

	stats := &Stats{LinesTotal: len(lines)}
	var origText, recText strings.Builder

	bounds := img.Bounds()
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		original, err := line.Text()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}

		if e.cfg.ConfidenceThreshold >= 0 {
			mean, err := line.MeanConfidence()
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i, err)
			}
			if mean < e.cfg.ConfidenceThreshold {
				stats.LinesSkipped++
				if e.cfg.CollectText {
					origText.WriteString(original + "\n")
					recText.WriteString(original + "\n")
				}
				continue
			}
		}

		cropBox := e.cfg.Padding.Apply(line.Box(), bounds.Dx(), bounds.Dy())
		crop, cropBox := cropLine(img, cropBox)
		if crop == nil {
			e.log.Warn("line box outside image bounds, leaving line untouched",
				"line", i, "hpos", line.HPos, "vpos", line.VPos)
			continue
		}

		words, err := e.rec.RecognizeLine(ctx, crop)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}

		recognized := joinWords(words)
		if len(words) > 0 {
			if e.cfg.GroundTruthDir != "" {
				if err := e.writeGroundTruth(i, crop, original, recognized); err != nil {
					return nil, err
				}
			}
			if e.cfg.CollectText {
				origText.WriteString(original + "\n")
				recText.WriteString(recognized + "\n")
			}
		}

		rewriteLine(line, words, cropBox)
		stats.LinesRecognized++
		stats.WordsWritten += len(words)
	}

	stats.OriginalText = origText.String()
	stats.RecognizedText = recText.String()
	return stats, nil
}

// rewriteLine replaces every child of the line with freshly recognized
// String tokens, synthesizing SP gap markers between non-adjacent words.
// The children are built first and swapped in as a whole, so a failure
// never leaves the line half-rewritten.
func rewriteLine(line *alto.TextLine, words []recognize.Word, crop alto.BoundingBox) {
	el := line.Element()
	tail := el.Tail() + "\t"

	var children []*etree.Element
	var prev alto.AreaPosition
	for i, word := range words {
		// Recognition coordinates are crop-local; the crop's top-left in
		// page space anchors them back to page coordinates.
		area := word.Box.Translate(crop.X1, crop.Y1).AreaPosition()

		if i > 0 {
			gap := area.X - (prev.X + prev.Width)
			if gap > 0 {
				sp := etree.NewElement("SP")
				sp.CreateAttr("WIDTH", strconv.Itoa(gap))
				sp.CreateAttr("VPOS", strconv.Itoa(prev.Y))
				sp.CreateAttr("HPOS", strconv.Itoa(prev.X+prev.Width))
				sp.SetTail(tail)
				children = append(children, sp)
			}
		}

		str := etree.NewElement("String")
		str.CreateAttr("ID", fmt.Sprintf("string_%d", i))
		str.CreateAttr("HPOS", strconv.Itoa(area.X))
		str.CreateAttr("VPOS", strconv.Itoa(area.Y))
		str.CreateAttr("WIDTH", strconv.Itoa(area.Width))
		str.CreateAttr("HEIGHT", strconv.Itoa(area.Height))
		str.CreateAttr("WC", strconv.FormatFloat(word.Confidence/100, 'f', 4, 64))
		str.CreateAttr("CONTENT", strings.TrimSpace(word.Text))
		str.SetTail(tail)
		children = append(children, str)

		prev = area
	}

	for _, tok := range append([]etree.Token(nil), el.Child...) {
		el.RemoveChild(tok)
	}
	for _, child := range children {
		el.AddChild(child)
	}
}

func (e *Engine) writeGroundTruth(index int, crop image.Image, original, recognized string) error {
	stem := filepath.Join(e.cfg.GroundTruthDir, fmt.Sprintf("%s_line_%04d", e.cfg.BaseName, index))

	f, err := os.Create(stem + ".png")
	if err != nil {
		return err
	}
	if err := png.Encode(f, crop); err != nil {
		f.Close()
		return fmt.Errorf("encoding line image %s: %w", stem, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(stem+".orig.gt.txt", []byte(original), 0644); err != nil {
		return err
	}
	return os.WriteFile(stem+".gt.txt", []byte(recognized), 0644)
}

func joinWords(words []recognize.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.TrimSpace(w.Text))
	}
	return strings.Join(parts, " ")
}
