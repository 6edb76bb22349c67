package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"priceflow/internal/models"
)

// recordsHeader matches the long-table column order of the price export.
var recordsHeader = []string{
	"productName", "skuName", "meterName", "meterId", "armRegionName",
	"armSkuName", "tierMinimumUnits", "unitPrice", "retailPrice",
	"priceType", "reservationTerm", "effectiveStartDate", "effectiveEndDate",
}

var wideHeader = []string{
	"ProductKey", "productName", "skuName", "meterName", "meterId",
	"armRegionName", "armSkuName", "tierMinimumUnits", "effectiveEndDate",
	"Consumption", "DevTestConsumption", "DevTestConsumption savings",
	"1 Year", "1 Year savings", "3 Years", "3 Years savings",
	"5 Years", "5 Years savings", "isReservation",
}

var fxHeader = []string{"currency", "fxRate"}

// CSVWriter writes one tabular export to a CSV file. It is safe for
// concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// newCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func newCSVWriter(path string, header []string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func (c *CSVWriter) writeRow(row []string) error {
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	return nil
}

// RecordsCSVWriter exports the long table of normalized price records.
type RecordsCSVWriter struct{ *CSVWriter }

func NewRecordsCSVWriter(path string) (*RecordsCSVWriter, error) {
	w, err := newCSVWriter(path, recordsHeader)
	if err != nil {
		return nil, err
	}
	return &RecordsCSVWriter{CSVWriter: w}, nil
}

func (c *RecordsCSVWriter) Write(records []models.NormalizedRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range records {
		r := &records[i]
		row := []string{
			r.ProductName, r.SkuName, r.MeterName, r.MeterID, r.ArmRegionName,
			r.ArmSkuName, formatFloat(r.TierMinimumUnits),
			formatFloat(r.UnitPrice), formatFloat(r.RetailPrice),
			r.PriceType, r.ReservationTerm, r.EffectiveStartDate, r.EffectiveEndDate,
		}
		if err := c.writeRow(row); err != nil {
			return err
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WideCSVWriter exports the pivoted one-row-per-product table. Absent price
// columns stay empty rather than zero.
type WideCSVWriter struct{ *CSVWriter }

func NewWideCSVWriter(path string) (*WideCSVWriter, error) {
	w, err := newCSVWriter(path, wideHeader)
	if err != nil {
		return nil, err
	}
	return &WideCSVWriter{CSVWriter: w}, nil
}

func (c *WideCSVWriter) Write(rows []models.WideProductRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range rows {
		r := &rows[i]
		row := []string{
			r.ProductKey, r.ProductName, r.SkuName, r.MeterName, r.MeterID,
			r.ArmRegionName, r.ArmSkuName, formatFloat(r.TierMinimumUnits),
			r.EffectiveEndDate,
			formatOptional(r.Consumption),
			formatOptional(r.DevTestConsumption), formatOptional(r.DevTestSavings),
			formatOptional(r.OneYear), formatOptional(r.OneYearSavings),
			formatOptional(r.ThreeYears), formatOptional(r.ThreeYearsSavings),
			formatOptional(r.FiveYears), formatOptional(r.FiveYearsSavings),
			strconv.FormatBool(r.IsReservation),
		}
		if err := c.writeRow(row); err != nil {
			return err
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// FxCSVWriter exports sampled exchange-rate estimates.
type FxCSVWriter struct{ *CSVWriter }

func NewFxCSVWriter(path string) (*FxCSVWriter, error) {
	w, err := newCSVWriter(path, fxHeader)
	if err != nil {
		return nil, err
	}
	return &FxCSVWriter{CSVWriter: w}, nil
}

func (c *FxCSVWriter) Write(estimates []models.FxEstimate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range estimates {
		if err := c.writeRow([]string{e.Currency, formatFloat(e.FxRate)}); err != nil {
			return err
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
