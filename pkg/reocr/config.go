package reocr

import (
	"log/slog"

	"github.com/gardar/altoforge/pkg/alto"
)

// Config holds user options for re-running OCR over a document.
type Config struct {
	// Padding expands each line box before cropping. Applied all-or-nothing
	// against the image bounds.
	Padding alto.Padding

	// ConfidenceThreshold skips re-recognition for lines whose existing
	// mean word confidence (percentage scale) is below the cutoff.
	// A negative value disables the check.
	ConfidenceThreshold float64

	// CollectText aggregates per-line original and recognized text into
	// the returned Stats, for the caller to route to text output files.
	CollectText bool

	// GroundTruthDir, when set, receives one crop image plus original and
	// recognized text files per processed line.
	GroundTruthDir string

	// BaseName prefixes ground-truth file names. Callers typically pass
	// the ALTO file's stem.
	BaseName string

	// Logger receives per-line warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a config with re-recognition of every line and no
// side files.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: -1,
	}
}
