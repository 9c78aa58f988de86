// Package alto implements parsing, inspection, and mutation of ALTO data,
// which is an XML standard for representing OCR page layout and text.
//
// This package provides:
//
// - A document wrapper that preserves the full XML tree for in-place rewriting
// - Namespace resolution against the registered ALTO dialects
// - Typed views over TextLine and String elements with validated geometry
// - Bounding box, area position, and padding arithmetic
// - Read-only extractors for text, illustrations, and word confidence
//
// The package keeps the underlying element tree available at all times, so
// callers such as the re-OCR engine can replace the children of a TextLine
// while leaving the rest of the document byte-for-byte intact.
//
// Key Types:
//
// - Document: a parsed ALTO file with its resolved namespace
// - TextLine: a single line of text with validated HPOS/VPOS/WIDTH/HEIGHT
// - String: a recognized word token with content and confidence
// - BoundingBox: a two-corner rectangle in page coordinates
// - AreaPosition: ALTO's (HPOS, VPOS, WIDTH, HEIGHT) rectangle form
// - Padding: per-side expansion applied to line boxes before cropping
//
// Main Functions:
//
// - Parse, ParseFile: read ALTO XML, honoring declared or overridden encodings
// - ResolveNamespace: identify which ALTO dialect a document uses
// - WriteText, WriteIllustrations, Confidence: read-only extraction passes
package alto
