// Package excel reads climate matrices and writes result tables in Excel
// and CSV form.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"dendrosim/domain/series"
	"dendrosim/ports"
)

// ClimateReader loads a year-by-month climate matrix from an .xlsx or .csv
// file. Expected layout: one header row, then one row per year whose first
// cell is the year label and whose remaining cells are the standardized
// monthly values.
type ClimateReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewClimateReader creates a reader for the given file; the extension picks
// the format.
func NewClimateReader(filePath string) *ClimateReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &ClimateReader{filePath: filePath, fileType: fileType}
}

var _ ports.ClimateReaderPort = (*ClimateReader)(nil)

// ReadMatrix reads the climate matrix.
func (r *ClimateReader) ReadMatrix() (*series.Matrix, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("climate file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	return parseMatrix(rows)
}

func (r *ClimateReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated during parsing
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *ClimateReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func parseMatrix(rows [][]string) (*series.Matrix, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("climate file needs a header row and at least one data row, got %d rows", len(rows))
	}

	data := make([][]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("climate row %d has no monthly values", i+2)
		}
		values := make([]float64, 0, len(row)-1)
		for j, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("climate row %d column %d: %q is not numeric", i+2, j+2, cell)
			}
			values = append(values, v)
		}
		data = append(data, values)
	}
	return series.NewMatrix(data)
}
