package alto

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Hyphenation substitution types used by ALTO for a word split across lines.
const (
	HypPart1 = "HypPart1"
	HypPart2 = "HypPart2"
)

// TextLine is a typed view over an ALTO <TextLine> element. The geometry
// attributes are validated once at construction; the element handle stays
// available so the line's children can be rewritten in place.
type TextLine struct {
	HPos   int
	VPos   int
	Width  int
	Height int

	el *etree.Element
}

// NewTextLine validates the element's geometry attributes and wraps it.
// A missing or non-integer HPOS, VPOS, WIDTH, or HEIGHT is a hard error.
func NewTextLine(el *etree.Element) (*TextLine, error) {
	line := &TextLine{el: el}
	for _, attr := range []struct {
		name string
		dst  *int
	}{
		{"HPOS", &line.HPos},
		{"VPOS", &line.VPos},
		{"WIDTH", &line.Width},
		{"HEIGHT", &line.Height},
	} {
		raw := el.SelectAttrValue(attr.name, "")
		if raw == "" {
			return nil, fmt.Errorf("missing %s attribute", attr.name)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed %s attribute %q", attr.name, raw)
		}
		*attr.dst = n
	}
	return line, nil
}

// Element returns the underlying <TextLine> element.
func (l *TextLine) Element() *etree.Element {
	return l.el
}

// Box returns the line's page-space bounding box.
func (l *TextLine) Box() BoundingBox {
	return BoundingBox{X1: l.HPos, Y1: l.VPos, X2: l.HPos + l.Width, Y2: l.VPos + l.Height}
}

// String is a recognized word token read from an ALTO <String> element.
type String struct {
	Content     string
	Confidence  float64 // WC attribute, normalized 0.0-1.0
	SubsContent string
	SubsType    string
}

// Strings parses the line's <String> children in order. A malformed WC
// attribute fails the call.
func (l *TextLine) Strings() ([]String, error) {
	var words []String
	for _, child := range l.el.ChildElements() {
		if child.Tag != "String" {
			continue
		}
		word := String{
			Content:     child.SelectAttrValue("CONTENT", ""),
			SubsContent: child.SelectAttrValue("SUBS_CONTENT", ""),
			SubsType:    child.SelectAttrValue("SUBS_TYPE", ""),
		}
		if raw := child.SelectAttrValue("WC", ""); raw != "" {
			wc, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed WC attribute %q", raw)
			}
			word.Confidence = wc
		}
		words = append(words, word)
	}
	return words, nil
}

// Text reconstructs the line's original text with hyphenation substitution
// applied: the first half of a hyphenated pair contributes its substituted
// full word, and the matching second half contributes nothing. Hyphenated
// pairs span lines, so a second half at the start of the line is assumed
// to pair with the previous line; a second half anywhere else without its
// first half means the pairing is malformed and is reported as an error
// rather than silently dropped.
func (l *TextLine) Text() (string, error) {
	words, err := l.Strings()
	if err != nil {
		return "", err
	}
	text, _, err := lineText(words, true)
	return text, err
}

// lineText builds one line's text. pending carries whether the preceding
// token (possibly on the previous line) was the first half of a hyphenated
// pair; the updated state is returned for the caller to thread across
// lines. A HypPart2 must immediately follow its HypPart1 in reading order.
func lineText(words []String, pending bool) (string, bool, error) {
	var b strings.Builder
	for _, word := range words {
		switch {
		case strings.Contains(word.SubsType, HypPart1):
			b.WriteString(word.SubsContent)
			b.WriteString(" ")
			pending = true
		case strings.Contains(word.SubsType, HypPart2):
			if !pending {
				return "", false, fmt.Errorf("hyphenation second half %q has no matching first half", word.Content)
			}
			pending = false
		default:
			b.WriteString(word.Content)
			b.WriteString(" ")
			pending = false
		}
	}
	return strings.TrimSpace(b.String()), pending, nil
}

// MeanConfidence computes the mean WC of the line's String children on the
// percentage scale, rounded to 2 decimals. A line with no String children
// reports 0, which keeps threshold comparisons deterministic.
func (l *TextLine) MeanConfidence() (float64, error) {
	words, err := l.Strings()
	if err != nil {
		return 0, err
	}
	if len(words) == 0 {
		return 0, nil
	}
	var sum float64
	for _, word := range words {
		sum += word.Confidence
	}
	return roundTo2(sum / float64(len(words)) * 100), nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
