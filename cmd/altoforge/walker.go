package main

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// walk expands the command-line inputs into a list of ALTO files to
// process. Plain files are returned as-is; directories are scanned for
// .xml and .alto files, recursively when the input ends in *; http(s)
// URLs are downloaded into the output directory first.
func walk(inputs []string, output string) ([]string, error) {
	var files []string
	for _, input := range inputs {
		switch {
		case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
			path, err := download(input, output)
			if err != nil {
				return nil, fmt.Errorf("downloading %s: %w", input, err)
			}
			files = append(files, path)
		case strings.HasSuffix(input, "*"):
			dir := strings.TrimSuffix(input, "*")
			if dir == "" {
				dir = "."
			}
			err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isAltoFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		default:
			info, err := os.Stat(input)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				files = append(files, input)
				continue
			}
			entries, err := os.ReadDir(input)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if !entry.IsDir() && isAltoFile(entry.Name()) {
					files = append(files, filepath.Join(input, entry.Name()))
				}
			}
		}
	}
	return files, nil
}

func isAltoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xml" || ext == ".alto"
}

// download fetches a remote ALTO file into the output directory (or the
// working directory when none is configured) and returns the local path.
func download(url, output string) (string, error) {
	dir := output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	name := url[strings.LastIndex(url, "/")+1:]
	if name == "" {
		return "", fmt.Errorf("cannot derive a file name from %s", url)
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
