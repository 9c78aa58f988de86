package reocr

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/gardar/altoforge/pkg/alto"
	"github.com/gardar/altoforge/pkg/recognize"
)

// fakeRecognizer returns one scripted word list per line, in call order.
type fakeRecognizer struct {
	perLine [][]recognize.Word
	calls   int
}

func (f *fakeRecognizer) RecognizeLine(_ context.Context, _ image.Image) ([]recognize.Word, error) {
	if f.calls >= len(f.perLine) {
		return nil, nil
	}
	words := f.perLine[f.calls]
	f.calls++
	return words, nil
}

func (f *fakeRecognizer) Close() error { return nil }

const oneLineALTO = `<?xml version="1.0" encoding="UTF-8"?>
<alto xmlns="http://www.loc.gov/standards/alto/ns-v2#">
	<Layout>
		<Page>
			<PrintSpace>
				<TextLine HPOS="100" VPOS="200" WIDTH="300" HEIGHT="40">
					<String ID="string_0" HPOS="100" VPOS="200" WIDTH="80" HEIGHT="30" WC="0.45" CONTENT="alt"/>
					<SP WIDTH="20" VPOS="200" HPOS="180"/>
					<String ID="string_1" HPOS="200" VPOS="200" WIDTH="80" HEIGHT="30" WC="0.45" CONTENT="Text"/>
				</TextLine>
			</PrintSpace>
		</Page>
	</Layout>
</alto>
`

func parseOneLine(t *testing.T) (*alto.Document, *alto.TextLine) {
	t.Helper()
	doc, err := alto.Parse(strings.NewReader(oneLineALTO), nil)
	require.NoError(t, err)
	lines, err := doc.TextLines()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	return doc, lines[0]
}

func pageImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func attrInt(t *testing.T, el *etree.Element, name string) int {
	t.Helper()
	raw := el.SelectAttrValue(name, "")
	require.NotEmpty(t, raw, "attribute %s", name)
	n := 0
	for _, r := range raw {
		require.True(t, r >= '0' && r <= '9', "attribute %s=%q", name, raw)
		n = n*10 + int(r-'0')
	}
	return n
}

func TestProcessDocumentRewritesLine(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "Hello", Confidence: 95, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "World", Confidence: 88, Box: alto.NewBoundingBox(100, 0, 180, 30)},
	}}}

	engine := New(rec, DefaultConfig())
	stats, err := engine.ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Equal(t, 1, stats.LinesRecognized)
	require.Equal(t, 2, stats.WordsWritten)

	children := line.Element().ChildElements()
	require.Len(t, children, 3)

	first, sp, second := children[0], children[1], children[2]

	require.Equal(t, "String", first.Tag)
	require.Equal(t, "string_0", first.SelectAttrValue("ID", ""))
	require.Equal(t, 100, attrInt(t, first, "HPOS"))
	require.Equal(t, 200, attrInt(t, first, "VPOS"))
	require.Equal(t, 80, attrInt(t, first, "WIDTH"))
	require.Equal(t, 30, attrInt(t, first, "HEIGHT"))
	require.Equal(t, "0.9500", first.SelectAttrValue("WC", ""))
	require.Equal(t, "Hello", first.SelectAttrValue("CONTENT", ""))

	require.Equal(t, "SP", sp.Tag)
	require.Equal(t, 20, attrInt(t, sp, "WIDTH"))
	require.Equal(t, 180, attrInt(t, sp, "HPOS"))
	require.Equal(t, 200, attrInt(t, sp, "VPOS"))

	require.Equal(t, "string_1", second.SelectAttrValue("ID", ""))
	require.Equal(t, 200, attrInt(t, second, "HPOS"))
	require.Equal(t, "0.8800", second.SelectAttrValue("WC", ""))
	require.Equal(t, "World", second.SelectAttrValue("CONTENT", ""))
}

func TestProcessDocumentNoGapNoSP(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "ab", Confidence: 90, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "cd", Confidence: 90, Box: alto.NewBoundingBox(80, 0, 160, 30)},
	}}}

	_, err := New(rec, DefaultConfig()).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)

	children := line.Element().ChildElements()
	require.Len(t, children, 2)
	require.Equal(t, "String", children[0].Tag)
	require.Equal(t, "String", children[1].Tag)
}

func TestProcessDocumentOverlapNoSP(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "ab", Confidence: 90, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "cd", Confidence: 90, Box: alto.NewBoundingBox(70, 0, 150, 30)},
	}}}

	_, err := New(rec, DefaultConfig()).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Len(t, line.Element().ChildElements(), 2)
}

func TestProcessDocumentEmptyRecognition(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{}}}

	stats, err := New(rec, DefaultConfig()).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Equal(t, 1, stats.LinesRecognized)
	require.Equal(t, 0, stats.WordsWritten)
	require.Empty(t, line.Element().ChildElements(), "a line with no recognized words is a valid empty line")
}

func TestProcessDocumentThresholdSkip(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "nie", Confidence: 99, Box: alto.NewBoundingBox(0, 0, 80, 30)},
	}}}

	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 60 // line's mean WC is 45
	cfg.CollectText = true

	stats, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Equal(t, 1, stats.LinesSkipped)
	require.Equal(t, 0, stats.LinesRecognized)
	require.Zero(t, rec.calls, "recognition must not run for skipped lines")

	// The line keeps its original children untouched.
	children := line.Element().ChildElements()
	require.Len(t, children, 3)
	require.Equal(t, "alt", children[0].SelectAttrValue("CONTENT", ""))

	// Skipped lines emit their original text on both sides.
	require.Equal(t, "alt Text\n", stats.OriginalText)
	require.Equal(t, "alt Text\n", stats.RecognizedText)
}

func TestProcessDocumentThresholdPasses(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "neu", Confidence: 99, Box: alto.NewBoundingBox(0, 0, 80, 30)},
	}}}

	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 40 // line's mean WC is 45

	stats, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Equal(t, 1, stats.LinesRecognized)
	require.Equal(t, "neu", line.Element().ChildElements()[0].SelectAttrValue("CONTENT", ""))
}

func TestProcessDocumentTails(t *testing.T) {
	doc, line := parseOneLine(t)
	lineTail := line.Element().Tail()
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "Hello", Confidence: 95, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "World", Confidence: 88, Box: alto.NewBoundingBox(100, 0, 180, 30)},
	}}}

	_, err := New(rec, DefaultConfig()).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)

	for _, child := range line.Element().ChildElements() {
		require.Equal(t, lineTail+"\t", child.Tail())
	}
}

func TestProcessDocumentPaddedCropOrigin(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		// Word starts 5px into the padded crop, which begins at page (95,195).
		{Text: "pad", Confidence: 90, Box: alto.NewBoundingBox(5, 5, 85, 35)},
	}}}

	cfg := DefaultConfig()
	cfg.Padding = alto.UniformPadding(5)

	_, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)

	word := line.Element().ChildElements()[0]
	require.Equal(t, 100, attrInt(t, word, "HPOS"))
	require.Equal(t, 200, attrInt(t, word, "VPOS"))
}

func TestProcessDocumentPaddingRejectedAtImageEdge(t *testing.T) {
	doc, line := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "edge", Confidence: 90, Box: alto.NewBoundingBox(0, 0, 80, 30)},
	}}}

	cfg := DefaultConfig()
	cfg.Padding = alto.UniformPadding(5)

	// The line box reaches the image's right and bottom edges, so the
	// padded crop would fall outside and the unpadded box is used.
	_, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(400, 240))
	require.NoError(t, err)

	word := line.Element().ChildElements()[0]
	require.Equal(t, 100, attrInt(t, word, "HPOS"))
	require.Equal(t, 200, attrInt(t, word, "VPOS"))
}

func TestProcessDocumentGroundTruthFiles(t *testing.T) {
	doc, _ := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "Hello", Confidence: 95, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "World", Confidence: 88, Box: alto.NewBoundingBox(100, 0, 180, 30)},
	}}}

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.GroundTruthDir = dir
	cfg.BaseName = "page_01"

	_, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)

	orig, err := os.ReadFile(filepath.Join(dir, "page_01_line_0000.orig.gt.txt"))
	require.NoError(t, err)
	require.Equal(t, "alt Text", string(orig))

	recognized, err := os.ReadFile(filepath.Join(dir, "page_01_line_0000.gt.txt"))
	require.NoError(t, err)
	require.Equal(t, "Hello World", string(recognized))

	_, err = os.Stat(filepath.Join(dir, "page_01_line_0000.png"))
	require.NoError(t, err)
}

func TestProcessDocumentCollectsText(t *testing.T) {
	doc, _ := parseOneLine(t)
	rec := &fakeRecognizer{perLine: [][]recognize.Word{{
		{Text: "Hello", Confidence: 95, Box: alto.NewBoundingBox(0, 0, 80, 30)},
		{Text: "World", Confidence: 88, Box: alto.NewBoundingBox(100, 0, 180, 30)},
	}}}

	cfg := DefaultConfig()
	cfg.CollectText = true

	stats, err := New(rec, cfg).ProcessDocument(context.Background(), doc, pageImage(1000, 1000))
	require.NoError(t, err)
	require.Equal(t, "alt Text\n", stats.OriginalText)
	require.Equal(t, "Hello World\n", stats.RecognizedText)
}
