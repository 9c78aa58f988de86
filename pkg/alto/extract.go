package alto

import (
	"fmt"
	"io"
	"strconv"
)

// WriteText extracts the document's text content line by line to w, with
// hyphenation substitution applied. The pairing state is threaded across
// lines, so a second half opening a line must be preceded by a first half
// closing an earlier one; anything else is malformed pairing and an error.
func WriteText(doc *Document, w io.Writer) error {
	pending := false
	for i, el := range doc.FindAll("TextLine") {
		line := &TextLine{el: el}
		words, err := line.Strings()
		if err != nil {
			return fmt.Errorf("TextLine %d: %w", i, err)
		}
		text, next, err := lineText(words, pending)
		if err != nil {
			return fmt.Errorf("TextLine %d: %w", i, err)
		}
		pending = next
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return nil
}

// WriteIllustrations extracts the bounding boxes of every Illustration
// element to w, one per line, as ID=HEIGHT,WIDTH,VPOS,HPOS.
func WriteIllustrations(doc *Document, w io.Writer) error {
	for _, el := range doc.FindAll("Illustration") {
		id := el.SelectAttrValue("ID", "")
		coords := el.SelectAttrValue("HEIGHT", "") + "," +
			el.SelectAttrValue("WIDTH", "") + "," +
			el.SelectAttrValue("VPOS", "") + "," +
			el.SelectAttrValue("HPOS", "")
		if _, err := fmt.Fprintf(w, "%s=%s\n", id, coords); err != nil {
			return err
		}
	}
	return nil
}

// Confidence computes the mean word confidence over every String element in
// the document, as a percentage rounded to 2 decimals, along with the word
// count. A document with no String elements reports 0, not an error.
func Confidence(doc *Document) (float64, int) {
	var sum float64
	count := 0
	for _, el := range doc.FindAll("String") {
		raw := el.SelectAttrValue("WC", "")
		if raw == "" {
			continue
		}
		wc, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		sum += wc
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return roundTo2(sum / float64(count) * 100), count
}
