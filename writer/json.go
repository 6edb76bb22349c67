package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"priceflow/internal/models"
)

// WriteRecordsJSON exports the long table of normalized records as a JSON
// array, one object per record.
func WriteRecordsJSON(path string, records []models.NormalizedRecord) error {
	return writeJSON(path, records)
}

// WriteWideJSON exports the pivoted table as a JSON array. Absent price
// columns serialize as null.
func WriteWideJSON(path string, rows []models.WideProductRow) error {
	return writeJSON(path, rows)
}

// WriteFxJSON exports exchange-rate estimates as a JSON array.
func WriteFxJSON(path string, estimates []models.FxEstimate) error {
	return writeJSON(path, estimates)
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("json: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("json: create file %q: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("json: encode: %w", err)
	}

	return f.Close()
}
