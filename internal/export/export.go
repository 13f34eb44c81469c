// Package export renders extraction results as JSON feeds, either as an
// HTTP attachment or as a file on disk.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/filmoteca/chartfetch/internal/chart"
)

// AttachmentName is the fixed filename offered to browsers on download.
const AttachmentName = "imdb_top250.json"

// WriteAttachment streams the movies-only payload as a JSON download. The
// payload is encoded before any header goes out, so an encoding failure can
// still turn into a clean error response.
func WriteAttachment(w http.ResponseWriter, movies []chart.Movie) error {
	if movies == nil {
		movies = []chart.Movie{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(movies); err != nil {
		return fmt.Errorf("encode movies: %w", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", AttachmentName))
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write attachment: %w", err)
	}
	return nil
}

// WriteFile writes the movies payload to path as indented JSON. Existing
// files are left untouched unless overwrite is set; parent directories are
// created as needed.
func WriteFile(path string, movies []chart.Movie, overwrite bool) error {
	if movies == nil {
		movies = []chart.Movie{}
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite %s", path)
		}
	}
	data, err := json.MarshalIndent(movies, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal movies: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
