package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
)

var resultHeader = []string{"specimen_count", "noise_level", "correlation", "coherence"}

// WriteRunCSV writes the results table to a CSV file, one row per draw.
func WriteRunCSV(path string, run *sim.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultHeader); err != nil {
		return err
	}
	for _, row := range run.Rows {
		record := []string{
			strconv.Itoa(row.SpecimenCount),
			strconv.FormatFloat(row.NoiseLevel, 'g', -1, 64),
			strconv.FormatFloat(row.Correlation, 'g', -1, 64),
			strconv.FormatFloat(row.Coherence, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteRunWorkbook writes the run to an Excel workbook: a Results sheet
// with the full table and a Summary sheet with the truth scalars and
// parameters.
func WriteRunWorkbook(path string, run *sim.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	const resultsSheet = "Results"
	f.SetSheetName(f.GetSheetName(0), resultsSheet)

	if err := f.SetSheetRow(resultsSheet, "A1", &resultHeader); err != nil {
		return err
	}
	for i, row := range run.Rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []interface{}{row.SpecimenCount, row.NoiseLevel, row.Correlation, row.Coherence}
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return err
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"run_id", run.ID.String()},
		{"population_coherence", run.Summary.PopulationCoherence},
		{"population_correlation", run.Summary.PopulationCorrelation},
		{"critical_correlation", run.Summary.CriticalCorrelation},
		{"population_size", run.Params.EffectivePopulation()},
		{"target_correlation", run.Params.TargetCorrelation},
		{"target_coherence", run.Params.TargetCoherence},
		{"replicates", run.Params.Replicates},
		{"repetitions", run.Params.Repetitions},
		{"p_value", run.Params.PValue},
		{"seed", run.Params.Seed},
	}
	for i, pair := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &pair); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// WriteClimateCSV writes a climate matrix in the layout ClimateReader
// expects: header row, then year label plus monthly values per row. Years
// are numbered from 1.
func WriteClimateCSV(path string, matrix *series.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create climate CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, matrix.Months+1)
	header[0] = "year"
	for m := 1; m <= matrix.Months; m++ {
		header[m] = fmt.Sprintf("month_%d", m)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for y := 0; y < matrix.Years; y++ {
		record := make([]string, matrix.Months+1)
		record[0] = strconv.Itoa(y + 1)
		for m, v := range matrix.Row(y) {
			record[m+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
