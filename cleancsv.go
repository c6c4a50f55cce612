package scribe

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ColumnInfo summarizes one CSV column's inferred shape.
type ColumnInfo struct {
	Name         string   `json:"name"`
	Dtype        string   `json:"dtype"` // "int64", "float64", "object"
	NullCount    int      `json:"null_count"`
	UniqueCount  int      `json:"unique_count"`
	SampleValues []string `json:"sample_values"`
}

// CSVInfo is the schema inferred from a sample of a CSV file.
type CSVInfo struct {
	Path    string       `json:"path"`
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Info    []ColumnInfo `json:"column_info"`
}

// CleaningStep is a single normalization action suggested or applied
// against a CSV column.
type CleaningStep struct {
	Type   string `json:"type"`
	Column string `json:"column,omitempty"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SniffCSV reads up to sampleRows rows and infers a dtype, null count,
// and sample values per column.
func SniffCSV(path string, sampleRows int) (CSVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return CSVInfo{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return CSVInfo{}, fmt.Errorf("clean_csv: read header: %w", err)
	}

	columns := make([][]string, len(header))
	rowCount := 0
	for sampleRows <= 0 || rowCount < sampleRows {
		record, err := reader.Read()
		if err != nil {
			break
		}
		rowCount++
		for i := range header {
			var val string
			if i < len(record) {
				val = record[i]
			}
			columns[i] = append(columns[i], val)
		}
	}

	colInfo := make([]ColumnInfo, len(header))
	for i, name := range header {
		colInfo[i] = inferColumn(name, columns[i])
	}

	return CSVInfo{Path: path, Rows: rowCount, Columns: len(header), Info: colInfo}, nil
}

func inferColumn(name string, values []string) ColumnInfo {
	nullCount := 0
	unique := map[string]bool{}
	var samples []string
	allInt, allFloat := true, true
	anyValue := false

	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			nullCount++
			continue
		}
		anyValue = true
		unique[v] = true
		if len(samples) < 3 {
			samples = append(samples, v)
		}
		if _, err := strconv.Atoi(v); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allFloat = false
		}
	}

	dtype := "object"
	switch {
	case !anyValue:
		dtype = "object"
	case allInt:
		dtype = "int64"
	case allFloat:
		dtype = "float64"
	}

	return ColumnInfo{
		Name:         name,
		Dtype:        dtype,
		NullCount:    nullCount,
		UniqueCount:  len(unique),
		SampleValues: samples,
	}
}

// SuggestCleaningSteps proposes drop/fill/validate/normalize steps based
// on each column's null ratio and inferred type.
func SuggestCleaningSteps(info CSVInfo) []CleaningStep {
	var steps []CleaningStep
	for _, col := range info.Info {
		if col.NullCount > 0 && info.Rows > 0 {
			ratio := float64(col.NullCount) / float64(info.Rows)
			switch {
			case ratio > 0.5:
				steps = append(steps, CleaningStep{Type: "drop_column", Column: col.Name, Reason: fmt.Sprintf("%.0f%% nulls", ratio*100)})
				continue
			case ratio > 0.05:
				steps = append(steps, CleaningStep{Type: "fill_nulls", Column: col.Name, Method: "forward_fill"})
			}
		}
		if col.Dtype == "int64" || col.Dtype == "float64" {
			steps = append(steps, CleaningStep{Type: "validate_numeric", Column: col.Name})
		}
		if col.Dtype == "object" {
			steps = append(steps, CleaningStep{Type: "normalize_strings", Column: col.Name})
		}
	}
	return steps
}

// CSVCleanResult reports how many rows survived cleaning and where the
// cleaned file was written.
type CSVCleanResult struct {
	OriginalRows  int            `json:"original_rows"`
	CleanedRows   int            `json:"cleaned_rows"`
	OutputPath    string         `json:"output_path"`
	StepsApplied  []CleaningStep `json:"steps_applied"`
}

// CleanCSV re-reads the full file and applies steps column-by-column,
// writing the result to outputPath.
func CleanCSV(info CSVInfo, steps []CleaningStep, outputPath string) (CSVCleanResult, error) {
	f, err := os.Open(info.Path)
	if err != nil {
		return CSVCleanResult{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return CSVCleanResult{}, err
	}
	var rows [][]string
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		rows = append(rows, record)
	}
	originalRows := len(rows)

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	dropped := map[string]bool{}

	for _, step := range steps {
		idx, ok := colIdx[step.Column]
		if !ok {
			continue
		}
		switch step.Type {
		case "drop_column":
			dropped[step.Column] = true
		case "fill_nulls":
			applyForwardFill(rows, idx)
		case "validate_numeric":
			coerceNumeric(rows, idx)
		case "normalize_strings":
			normalizeStrings(rows, idx)
		}
	}

	outHeader, outRows := dropColumns(header, rows, dropped)

	out, err := os.Create(outputPath)
	if err != nil {
		return CSVCleanResult{}, err
	}
	defer out.Close()
	writer := csv.NewWriter(out)
	if err := writer.Write(outHeader); err != nil {
		return CSVCleanResult{}, err
	}
	for _, row := range outRows {
		if err := writer.Write(row); err != nil {
			return CSVCleanResult{}, err
		}
	}
	writer.Flush()

	return CSVCleanResult{
		OriginalRows: originalRows,
		CleanedRows:  len(outRows),
		OutputPath:   outputPath,
		StepsApplied: steps,
	}, writer.Error()
}

func applyForwardFill(rows [][]string, idx int) {
	last := ""
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if strings.TrimSpace(row[idx]) == "" {
			row[idx] = last
		} else {
			last = row[idx]
		}
	}
}

func coerceNumeric(rows [][]string, idx int) {
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if _, err := strconv.ParseFloat(row[idx], 64); err != nil {
			row[idx] = ""
		}
	}
}

func normalizeStrings(rows [][]string, idx int) {
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		row[idx] = strings.ToLower(strings.TrimSpace(row[idx]))
	}
}

func dropColumns(header []string, rows [][]string, dropped map[string]bool) ([]string, [][]string) {
	if len(dropped) == 0 {
		return header, rows
	}
	var keep []int
	var outHeader []string
	for i, name := range header {
		if !dropped[name] {
			keep = append(keep, i)
			outHeader = append(outHeader, name)
		}
	}
	outRows := make([][]string, len(rows))
	for r, row := range rows {
		newRow := make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				newRow[j] = row[idx]
			}
		}
		outRows[r] = newRow
	}
	return outHeader, outRows
}
