package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gofit/domain/core"
	"gofit/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Load reads the file and builds a dataset with every record selected and roles assigned
func (r *DataReader) Load(opts LoadOptions) (*dataset.Dataset, error) {
	data, err := r.ReadData(opts.Sheet)
	if err != nil {
		return nil, err
	}
	return BuildDataset(data, opts.Selectors())
}

// ReadData reads the raw table. sheet is ignored for CSV files; an empty sheet
// selects the first worksheet of an Excel file.
func (r *DataReader) ReadData(sheet string) (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	// Check if file exists
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData(sheet)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads one worksheet into structured format
func (r *DataReader) readExcelData(sheet string) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: Excel file has no worksheets", core.ErrInvalidData)
		}
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: worksheet %q not found (available: %s)",
			core.ErrInvalidData, sheet, strings.Join(sheets, ", "))
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: Excel sheet must have at least a header row and one data row", core.ErrInvalidData)
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV file must have at least a header row and one data row", core.ErrInvalidData)
	}

	return r.processRows(rows)
}

// processRows trims cells, names blank headers and drops blank rows
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			headers[i] = "column_" + strconv.Itoa(i+1)
		}
	}

	var dataRows [][]string
	for i := 1; i < len(rows); i++ {
		row := make([]string, len(headers))
		blank := true
		for j, cell := range rows[i] {
			if j < len(headers) {
				row[j] = strings.TrimSpace(cell)
				blank = blank && row[j] == ""
			}
		}
		if blank {
			continue
		}
		dataRows = append(dataRows, row)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// BuildDataset parses every cell as a number and assigns roles from selectors.
// Row numbers in errors count the header as row 1.
func BuildDataset(data *ExcelData, selectors dataset.Roles) (*dataset.Dataset, error) {
	if data == nil || len(data.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", core.ErrInvalidData)
	}

	columns := make([]dataset.Column, len(data.Headers))
	for j, header := range data.Headers {
		columns[j] = dataset.Column{Name: header, Values: make([]float64, len(data.Rows))}
	}
	for i, row := range data.Rows {
		for j, cell := range row {
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, core.NewInvalidDataError(data.Headers[j], i+2, cell)
			}
			columns[j].Values[i] = value
		}
	}

	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, err
	}
	roles, err := dataset.ResolveRoles(data.Headers, selectors)
	if err != nil {
		return nil, err
	}
	if err := ds.SetRoles(roles); err != nil {
		return nil, err
	}
	log.Printf("[DataReader] dataset built: %d records, roles x=%q xerr=%q y=%q yerr=%q",
		ds.Len(), roles.X, roles.XErr, roles.Y, roles.YErr)
	return ds, nil
}
