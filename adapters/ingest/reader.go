// Package ingest parses uploaded distance matrices and metadata tables
// into validated domain structures. Matrices arrive as .tsv or .csv
// with sample IDs on both the first row and first column; metadata
// arrives as .csv or .xlsx with samples in the first column.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"goord/domain/core"
	"goord/domain/matrix"

	"github.com/xuri/excelize/v2"
)

// Reader implements ports.DatasetReaderPort
type Reader struct{}

// NewReader creates a dataset reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadDistanceMatrix parses a square distance matrix file. The
// delimiter is taken from the extension for .tsv and sniffed from the
// header line otherwise.
func (r *Reader) ReadDistanceMatrix(src io.Reader, filename string) (*matrix.DistanceMatrix, error) {
	rows, err := readDelimited(src, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewValidationError("distance matrix", "file must have a header row and at least one data row")
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, core.NewValidationError("distance matrix", "header row has no sample columns")
	}
	colIDs := make([]core.SampleID, len(header)-1)
	for i, h := range header[1:] {
		colIDs[i] = core.NewSampleID(h)
	}

	rowIDs := make([]core.SampleID, 0, len(rows)-1)
	data := make([][]float64, 0, len(rows)-1)
	for lineNo, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue // trailing blank line
		}
		rowIDs = append(rowIDs, core.NewSampleID(row[0]))
		values := make([]float64, len(row)-1)
		for c, cell := range row[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, core.NewValidationError("distance matrix",
					fmt.Sprintf("non-numeric value %q at row %d, column %d", cell, lineNo+2, c+2))
			}
			values[c] = v
		}
		data = append(data, values)
	}

	return matrix.New(rowIDs, colIDs, data)
}

// ReadMetadata parses a metadata table. The first column header is
// replaced by SampleID whatever the file calls it.
func (r *Reader) ReadMetadata(src io.Reader, filename string) (*matrix.Metadata, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		rows, err = readExcel(src)
	} else {
		rows, err = readDelimited(src, filename)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, core.NewValidationError("metadata", "file must have a header row and at least one data row")
	}

	header := append([]string(nil), rows[0]...)
	header[0] = matrix.SampleIDColumn
	return matrix.NewMetadata(header, rows[1:])
}

// readDelimited reads csv/tsv content with delimiter sniffing
func readDelimited(src io.Reader, filename string) ([][]string, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	content := strings.TrimPrefix(string(raw), "\uFEFF") // strip BOM

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = sniffDelimiter(content, filename)
	reader.FieldsPerRecord = -1 // shape is validated downstream
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewValidationError("file format", fmt.Sprintf("%s: %v", filename, err))
	}
	return rows, nil
}

// sniffDelimiter picks tab or comma from the extension, falling back
// to whichever appears more often in the first line.
func sniffDelimiter(content, filename string) rune {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv":
		return '\t'
	case ".csv":
		return ','
	}
	firstLine := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		firstLine = content[:i]
	}
	if strings.Count(firstLine, "\t") > strings.Count(firstLine, ",") {
		return '\t'
	}
	return ','
}

// readExcel reads the first sheet of an xlsx workbook
func readExcel(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, core.NewValidationError("file format", fmt.Sprintf("not a readable xlsx workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewValidationError("metadata", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
