// altoforge is a command-line tool for post-processing ALTO XML files
// produced by OCR pipelines.
//
// It can extract plain text, illustration regions, and page confidence
// scores from ALTO files, and re-run OCR recognition over the source page
// image using the geometric layout already declared in the document,
// rewriting each text line with fresh words, geometry, and confidence.
//
// Usage:
//
//	altoforge [options] INPUT...
//
// Inputs may be ALTO files, directories (scanned for .xml/.alto files, or
// recursively with a trailing *), or http(s) URLs.
//
// Operations (at least one required):
//
//	-confidence    calculate page confidence from each ALTO file
//	-text          extract text content (with -reocr: original and new text)
//	-illustrations extract bounding boxes of illustrations
//	-reocr         redo OCR from the ALTO line boxes
//
// Re-OCR options:
//
//	-engine string               OCR engine: tesseract or gdocai (default tesseract)
//	-engine-config string        YAML config file (required for gdocai)
//	-lang string                 Language model (default eng)
//	-padding string              Extra padding around line boxes, "5" or "l,t,r,b"
//	-confidence-threshold float  Only re-OCR lines below this confidence
//	-imagepath string            Where to find page images (default: use the
//	                             sourceImageInformation section; @path points
//	                             directly at an image file)
//	-gtline                      Save each line crop with old and new text
//	-backup                      Keep a copy of the original XML
//
// General options:
//
//	-output string        Output directory (default: next to each input)
//	-xml-encoding string  Override the encoding declared in the XML prolog
//	-version              Print version and exit
//
// Examples:
//
// Re-OCR a batch of ALTO files with Tesseract, padding the line crops:
//
//	altoforge -reocr -lang deu -padding 8,3,6,3 scans/
//
// Re-OCR only low-confidence lines and keep ground-truth line images:
//
//	altoforge -reocr -confidence-threshold 60 -gtline -backup page.xml
//
// Extract text and confidence to per-file outputs:
//
//	altoforge -text -confidence -output out/ scans/*
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/altoforge/pkg/alto"
	"github.com/gardar/altoforge/pkg/pageimage"
	"github.com/gardar/altoforge/pkg/recognize"
	"github.com/gardar/altoforge/pkg/recognize/gdocai"
	"github.com/gardar/altoforge/pkg/recognize/tesseract"
	"github.com/gardar/altoforge/pkg/reocr"
)

const version = "0.1.0"

type engineConfig struct {
	Engine              string        `yaml:"engine"`
	Language            string        `yaml:"language"`
	Padding             string        `yaml:"padding"`
	ConfidenceThreshold *float64      `yaml:"confidence_threshold"`
	GDocAI              gdocai.Config `yaml:"gdocai"`
}

// loadEngineConfig reads the YAML engine configuration file.
func loadEngineConfig(path string) (*engineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg engineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	confidence := flag.Bool("confidence", false, "Calculate OCR page confidence from each ALTO file")
	text := flag.Bool("text", false, "Extract text content (with -reocr: write original and new text)")
	illustrations := flag.Bool("illustrations", false, "Extract bounding boxes of illustrations")
	redo := flag.Bool("reocr", false, "Redo OCR from the ALTO line boxes")

	engineName := flag.String("engine", "tesseract", "OCR engine: tesseract or gdocai")
	engineConfigPath := flag.String("engine-config", "", "YAML engine configuration file")
	lang := flag.String("lang", "eng", "Language model for recognition")
	paddingSpec := flag.String("padding", "0", `Extra padding around line boxes, "5" or "left,top,right,bottom"`)
	threshold := flag.Float64("confidence-threshold", -1, "Only re-OCR lines with mean confidence below this value")
	imagePath := flag.String("imagepath", "", "Path to page images (default: sourceImageInformation; @path points directly at an image)")
	gtline := flag.Bool("gtline", false, "Save each line crop (.png) with the old (.orig.gt.txt) and new (.gt.txt) text")
	backup := flag.Bool("backup", false, "Keep a copy of the original XML file before rewriting")

	output := flag.String("output", "", "Output directory (default: next to each input)")
	xmlEncoding := flag.String("xml-encoding", "", "Override the encoding declared in the XML prolog")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if !*confidence && !*text && !*illustrations && !*redo {
		fmt.Fprintln(os.Stderr, "Error: no operation specified (-confidence, -text, -illustrations, or -reocr)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files specified")
		os.Exit(1)
	}

	// The engine config file provides defaults; flags win when set.
	var fileCfg *engineConfig
	if *engineConfigPath != "" {
		cfg, err := loadEngineConfig(*engineConfigPath)
		if err != nil {
			logger.Error("failed to load engine config", "path", *engineConfigPath, "error", err)
			os.Exit(1)
		}
		fileCfg = cfg
		setFlags := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		if !setFlags["engine"] && cfg.Engine != "" {
			*engineName = cfg.Engine
		}
		if !setFlags["lang"] && cfg.Language != "" {
			*lang = cfg.Language
		}
		if !setFlags["padding"] && cfg.Padding != "" {
			*paddingSpec = cfg.Padding
		}
		if !setFlags["confidence-threshold"] && cfg.ConfidenceThreshold != nil {
			*threshold = *cfg.ConfidenceThreshold
		}
	}

	padding, err := alto.ParsePadding(*paddingSpec)
	if err != nil {
		logger.Error("invalid padding", "spec", *paddingSpec, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var recognizer recognize.LineRecognizer
	if *redo {
		recognizer, err = newRecognizer(ctx, *engineName, *lang, fileCfg)
		if err != nil {
			logger.Error("failed to create recognizer", "engine", *engineName, "error", err)
			os.Exit(1)
		}
		defer recognizer.Close()
	}

	files, err := walk(flag.Args(), *output)
	if err != nil {
		logger.Error("failed to collect inputs", "error", err)
		os.Exit(1)
	}

	var parseOpts *alto.ParseOptions
	if *xmlEncoding != "" {
		parseOpts = &alto.ParseOptions{Encoding: *xmlEncoding}
	}

	confidenceSum := 0.0
	confidenceCount := 0
	for _, path := range files {
		doc, err := alto.ParseFile(path, parseOpts)
		if err != nil {
			logger.Warn("skipping file: parse failure", "file", path, "error", err)
			continue
		}
		ns, err := alto.ResolveNamespace(doc)
		if err != nil {
			logger.Warn("skipping file", "file", path, "error", err)
			continue
		}
		doc.Namespace = ns

		if *redo {
			img, err := pageimage.Load(doc, path, *imagePath)
			if err != nil {
				logger.Warn("skipping re-OCR: no page image", "file", path, "error", err)
				continue
			}

			outFolder := outputFolder(path, *output)
			cfg := reocr.Config{
				Padding:             padding,
				ConfidenceThreshold: *threshold,
				CollectText:         *text,
				BaseName:            stem(path),
				Logger:              logger,
			}
			if *gtline {
				cfg.GroundTruthDir = filepath.Join(outFolder, "gtlines")
			}

			engine := reocr.New(recognizer, cfg)
			stats, err := engine.ProcessDocument(ctx, doc, img)
			if err != nil {
				logger.Warn("skipping file: re-OCR failed", "file", path, "error", err)
				continue
			}

			if *text {
				if err := writeTextPair(outFolder, stem(path), stats); err != nil {
					logger.Warn("failed to write text output", "file", path, "error", err)
				}
			}
			if *backup {
				if err := backupFile(path, outFolder); err != nil {
					logger.Warn("failed to back up file", "file", path, "error", err)
					continue
				}
			}
			if err := doc.WriteFile(path); err != nil {
				logger.Error("failed to rewrite file", "file", path, "error", err)
				continue
			}
			logger.Info("re-OCR complete", "file", path,
				"lines", stats.LinesTotal, "recognized", stats.LinesRecognized,
				"skipped", stats.LinesSkipped, "words", stats.WordsWritten)
			continue
		}

		if *confidence {
			score, _ := alto.Confidence(doc)
			confidenceSum += score
			confidenceCount++
			out, closer, err := outputSink(path, *output, ".conf.txt")
			if err != nil {
				logger.Warn("failed to open confidence output", "file", path, "error", err)
				continue
			}
			fmt.Fprintf(out, "File: %s, Confidence: %.2f\n", filepath.Base(path), score)
			closer()
		}
		if *text {
			out, closer, err := outputSink(path, *output, ".txt")
			if err != nil {
				logger.Warn("failed to open text output", "file", path, "error", err)
				continue
			}
			if err := alto.WriteText(doc, out); err != nil {
				logger.Warn("text extraction failed", "file", path, "error", err)
			}
			closer()
		}
		if *illustrations {
			out, closer, err := outputSink(path, *output, ".img.txt")
			if err != nil {
				logger.Warn("failed to open illustrations output", "file", path, "error", err)
				continue
			}
			if err := alto.WriteIllustrations(doc, out); err != nil {
				logger.Warn("illustration extraction failed", "file", path, "error", err)
			}
			closer()
		}
	}

	if *confidence && confidenceCount >= 2 {
		fmt.Printf("Confidence of folder: %.2f\n", confidenceSum/float64(confidenceCount))
	}
}

// newRecognizer builds the configured recognition engine.
func newRecognizer(ctx context.Context, name, lang string, fileCfg *engineConfig) (recognize.LineRecognizer, error) {
	switch name {
	case "tesseract":
		return tesseract.New(lang)
	case "gdocai":
		if fileCfg == nil {
			return nil, fmt.Errorf("the gdocai engine requires -engine-config")
		}
		return gdocai.New(ctx, fileCfg.GDocAI)
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

// outputFolder returns the per-document folder for re-OCR side files.
func outputFolder(path, output string) string {
	if output == "" {
		return filepath.Join(filepath.Dir(path), stem(path))
	}
	return filepath.Join(output, stem(path))
}

// outputSink routes extraction output: to a per-file output file when an
// output directory is configured, to stdout otherwise.
func outputSink(path, output, suffix string) (io.Writer, func(), error) {
	if output == "" {
		return os.Stdout, func() {}, nil
	}
	if err := os.MkdirAll(output, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(filepath.Join(output, filepath.Base(path)+suffix))
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// writeTextPair stores the aggregated original and recognized text of a
// re-OCR'd document.
func writeTextPair(outFolder, base string, stats *reocr.Stats) error {
	dir := filepath.Join(outFolder, "text")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, base+".orig.txt"), []byte(stats.OriginalText), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, base+".txt"), []byte(stats.RecognizedText), 0644)
}

// backupFile copies the original XML into the document's output folder
// before the mutated tree overwrites it.
func backupFile(path, outFolder string) error {
	if err := os.MkdirAll(outFolder, 0755); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outFolder, filepath.Base(path)), data, 0644)
}

// stem strips the directory and every extension, so page_01.alto.xml
// becomes page_01.
func stem(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
