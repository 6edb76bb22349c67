package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"priceflow/internal/models"
)

// wideParquetRecord defines the parquet schema for the pivoted price table.
// Price and savings columns are optional so products missing a price type
// stay null in the file.
type wideParquetRecord struct {
	ProductKey       string  `parquet:"name=product_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductName      string  `parquet:"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	SkuName          string  `parquet:"name=sku_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeterName        string  `parquet:"name=meter_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeterID          string  `parquet:"name=meter_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArmRegionName    string  `parquet:"name=arm_region_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArmSkuName       string  `parquet:"name=arm_sku_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TierMinimumUnits float64 `parquet:"name=tier_minimum_units, type=DOUBLE"`

	Consumption        *float64 `parquet:"name=consumption, type=DOUBLE, repetitiontype=OPTIONAL"`
	DevTestConsumption *float64 `parquet:"name=devtest_consumption, type=DOUBLE, repetitiontype=OPTIONAL"`
	DevTestSavings     *float64 `parquet:"name=devtest_savings, type=DOUBLE, repetitiontype=OPTIONAL"`
	OneYear            *float64 `parquet:"name=one_year, type=DOUBLE, repetitiontype=OPTIONAL"`
	OneYearSavings     *float64 `parquet:"name=one_year_savings, type=DOUBLE, repetitiontype=OPTIONAL"`
	ThreeYears         *float64 `parquet:"name=three_years, type=DOUBLE, repetitiontype=OPTIONAL"`
	ThreeYearsSavings  *float64 `parquet:"name=three_years_savings, type=DOUBLE, repetitiontype=OPTIONAL"`
	FiveYears          *float64 `parquet:"name=five_years, type=DOUBLE, repetitiontype=OPTIONAL"`
	FiveYearsSavings   *float64 `parquet:"name=five_years_savings, type=DOUBLE, repetitiontype=OPTIONAL"`

	IsReservation bool `parquet:"name=is_reservation, type=BOOLEAN"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)  { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	// Write-only usage; report the current end of the buffer.
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// WideParquet encodes the pivoted table as a snappy-compressed parquet file
// and returns the raw bytes.
func WideParquet(rows []models.WideProductRow) ([]byte, error) {
	mem := newMemoryFileWriter()
	pw, err := pqwriter.NewParquetWriter(mem, new(wideParquetRecord), 1)
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		r := &rows[i]
		rec := wideParquetRecord{
			ProductKey:         r.ProductKey,
			ProductName:        r.ProductName,
			SkuName:            r.SkuName,
			MeterName:          r.MeterName,
			MeterID:            r.MeterID,
			ArmRegionName:      r.ArmRegionName,
			ArmSkuName:         r.ArmSkuName,
			TierMinimumUnits:   r.TierMinimumUnits,
			Consumption:        r.Consumption,
			DevTestConsumption: r.DevTestConsumption,
			DevTestSavings:     r.DevTestSavings,
			OneYear:            r.OneYear,
			OneYearSavings:     r.OneYearSavings,
			ThreeYears:         r.ThreeYears,
			ThreeYearsSavings:  r.ThreeYearsSavings,
			FiveYears:          r.FiveYears,
			FiveYearsSavings:   r.FiveYearsSavings,
			IsReservation:      r.IsReservation,
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write wide record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize wide parquet: %w", err)
	}

	return mem.Bytes(), nil
}

// WriteWideParquet encodes the pivoted table and writes it to path.
func WriteWideParquet(path string, rows []models.WideProductRow) error {
	data, err := WideParquet(rows)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("parquet: create output dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("parquet: write file %q: %w", path, err)
	}
	return nil
}
