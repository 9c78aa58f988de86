// Package pageimage resolves and decodes the page image associated with an
// ALTO document. The image can come from the document's own
// sourceImageInformation section, a local or relative path, a directory
// scan, or an HTTP(S) URL.
package pageimage

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Page scans commonly arrive as TIFF or BMP alongside JPEG and PNG.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/gardar/altoforge/pkg/alto"
)

// ErrNotFound indicates that no decodable page image could be located.
// Re-OCR is skipped for such documents; extraction operations that do not
// need the image proceed unaffected.
var ErrNotFound = errors.New("page image not found")

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".jp2", ".bmp"}

// Load resolves the page image for doc. The hint follows the original
// command-line convention:
//
//   - empty: use the fileName from the document's sourceImageInformation,
//     as a local path first, then as a URL
//   - "@path" or "@url": points directly at the image file
//   - "." or "..": resolved relative to the ALTO file at altoPath
//   - a directory: scanned for <basename>.<ext> matching the ALTO file
//   - a URL prefix: tried with the ALTO basename and known extensions
func Load(doc *alto.Document, altoPath, hint string) (image.Image, error) {
	switch {
	case hint == "":
		return fromSourceInformation(doc)
	case strings.HasPrefix(hint, "@"):
		return fromDirect(hint[1:])
	case strings.HasPrefix(hint, "http://"), strings.HasPrefix(hint, "https://"):
		return fromURLPrefix(hint, altoPath)
	default:
		return fromDirectory(hint, altoPath)
	}
}

// fromSourceInformation reads sourceImageInformation/fileName from the
// document and loads it as a file or URL.
func fromSourceInformation(doc *alto.Document) (image.Image, error) {
	for _, info := range doc.FindAll("sourceImageInformation") {
		for _, child := range info.ChildElements() {
			if child.Tag != "fileName" {
				continue
			}
			name := strings.TrimSpace(child.Text())
			if name == "" {
				continue
			}
			if img, err := decodeFile(name); err == nil {
				return img, nil
			}
			if isURL(name) {
				if img, err := decodeURL(name); err == nil {
					return img, nil
				}
			}
		}
	}
	return nil, ErrNotFound
}

func fromDirect(target string) (image.Image, error) {
	if isURL(target) {
		return decodeURL(target)
	}
	return decodeFile(target)
}

func fromURLPrefix(prefix, altoPath string) (image.Image, error) {
	base := baseName(altoPath)
	for _, ext := range imageExtensions {
		url := strings.TrimRight(prefix, "/") + "/" + base + ext
		if img, err := decodeURL(url); err == nil {
			return img, nil
		}
	}
	return nil, ErrNotFound
}

// fromDirectory resolves hint against the ALTO file location and scans the
// resulting directory, recursively, for an image matching the ALTO
// basename. Files that fail to decode (unsupported formats such as JPEG
// 2000) are skipped.
func fromDirectory(hint, altoPath string) (image.Image, error) {
	dir := hint
	if hint == "." || hint == "./" {
		dir = filepath.Dir(altoPath)
	} else if strings.HasPrefix(hint, ".") {
		dir = filepath.Join(filepath.Dir(altoPath), hint)
	}

	base := baseName(altoPath)
	var img image.Image
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || img != nil {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, base) {
			return nil
		}
		if !hasImageExtension(name) {
			return nil
		}
		decoded, err := decodeFile(path)
		if err != nil {
			return nil
		}
		img = decoded
		return filepath.SkipAll
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if img == nil {
		return nil, ErrNotFound
	}
	return img, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func decodeURL(url string) (image.Image, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	return img, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func hasImageExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range imageExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// baseName strips the directory and every extension from an ALTO path, so
// page_0015.alto.xml matches page_0015.png.
func baseName(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
