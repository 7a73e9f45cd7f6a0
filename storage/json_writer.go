package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"renovation-quoter/models"
)

// DefaultOutputPath is where the CLI writes quotes unless told otherwise.
const DefaultOutputPath = "./output/sample_quote.json"

// JSONWriter writes the most recent quote to a JSON file, replacing any
// previous content. It is safe for concurrent use.
type JSONWriter struct {
	mu   sync.Mutex
	path string
}

// NewJSONWriter prepares the file at path. Intermediate directories are
// created automatically.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if path == "" {
		path = DefaultOutputPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}
	return &JSONWriter{path: path}, nil
}

// Path returns the output file path.
func (j *JSONWriter) Path() string {
	return j.path
}

// Write encodes quote with 4-space indentation.
func (j *JSONWriter) Write(quote *models.Quote) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Create(j.path)
	if err != nil {
		return fmt.Errorf("json: create file %q: %w", j.path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(quote); err != nil {
		_ = f.Close()
		return fmt.Errorf("json: encode quote: %w", err)
	}
	return f.Close()
}

// Close is a no-op; every Write opens and closes the file.
func (j *JSONWriter) Close() error {
	return nil
}
