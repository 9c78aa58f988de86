// Package gdocai provides a Google Document AI-backed line recognizer.
// Each cropped line is submitted inline to an OCR processor and the
// returned token layout is mapped onto the recognize.Word contract.
//
// Authentication uses the GOOGLE_APPLICATION_CREDENTIALS environment
// variable for the service account credentials.
package gdocai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/altoforge/pkg/alto"
	"github.com/gardar/altoforge/pkg/recognize"
)

// Config identifies the Document AI OCR processor to call.
type Config struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`

	// Debug, when set, receives the raw API response of every recognition
	// call as JSON.
	Debug io.Writer `yaml:"-"`
}

// Recognizer submits line images to a Document AI processor. The client is
// bound to one in-flight request at a time and must not be shared between
// concurrent callers.
type Recognizer struct {
	client *documentai.DocumentProcessorClient
	name   string
	debug  io.Writer
}

// New creates a recognizer connected to the processor described by cfg.
func New(ctx context.Context, cfg Config) (*Recognizer, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	client, err := documentai.NewDocumentProcessorClient(
		ctx,
		option.WithEndpoint(endpoint),
		option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return &Recognizer{
		client: client,
		name: fmt.Sprintf("projects/%s/locations/%s/processors/%s",
			cfg.ProjectID, cfg.Location, cfg.ProcessorID),
		debug: cfg.Debug,
	}, nil
}

// RecognizeLine sends the cropped line image through the processor and
// returns the recognized words with crop-local bounding boxes.
func (r *Recognizer) RecognizeLine(ctx context.Context, img image.Image) ([]recognize.Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding line image: %w", err)
	}

	req := &documentaipb.ProcessRequest{
		Name: r.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  buf.Bytes(),
				MimeType: "image/png",
			},
		},
		SkipHumanReview: true,
	}
	resp, err := r.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process line: %w", err)
	}

	if r.debug != nil {
		if data, err := protojson.Marshal(resp.Document); err == nil {
			fmt.Fprintf(r.debug, "%s\n", data)
		}
	}

	return WordsFromDocument(resp.Document), nil
}

// Close releases the underlying API client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}

// WordsFromDocument maps the tokens of a Document AI response onto the
// adapter contract. A crop covers exactly one line, so tokens from all
// returned pages are flattened in order.
func WordsFromDocument(doc *documentaipb.Document) []recognize.Word {
	if doc == nil {
		return nil
	}
	var words []recognize.Word
	for _, page := range doc.Pages {
		for _, token := range page.Tokens {
			if token.Layout == nil {
				continue
			}
			text := strings.TrimSpace(textFromLayout(token.Layout, doc.Text))
			if text == "" {
				continue
			}
			box, ok := tokenBox(token.Layout, page.Dimension)
			if !ok {
				continue
			}
			words = append(words, recognize.Word{
				Text:       text,
				Confidence: float64(token.Layout.Confidence) * 100,
				Box:        box,
			})
		}
	}
	return words
}

// textFromLayout extracts the text covered by a layout's anchor segments.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	var b strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start > end {
			start = end
		}
		b.WriteString(string(runes[start:end]))
	}
	return b.String()
}

// tokenBox converts a token's bounding poly to pixel coordinates. Pixel
// vertices are used directly; normalized vertices are scaled by the page
// dimension.
func tokenBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) (alto.BoundingBox, bool) {
	poly := layout.BoundingPoly
	if poly == nil {
		return alto.BoundingBox{}, false
	}
	if len(poly.Vertices) >= 4 {
		v := poly.Vertices
		return alto.NewBoundingBox(int(v[0].X), int(v[0].Y), int(v[2].X), int(v[2].Y)), true
	}
	if len(poly.NormalizedVertices) >= 4 && dim != nil {
		v := poly.NormalizedVertices
		return alto.NewBoundingBox(
			int(v[0].X*dim.Width+0.5),
			int(v[0].Y*dim.Height+0.5),
			int(v[2].X*dim.Width+0.5),
			int(v[2].Y*dim.Height+0.5),
		), true
	}
	return alto.BoundingBox{}, false
}
