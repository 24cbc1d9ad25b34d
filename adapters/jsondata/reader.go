// Package jsondata loads datasets from JSON documents.
package jsondata

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gofit/domain/core"
	"gofit/domain/dataset"

	"github.com/tidwall/gjson"
)

// JSONReader reads column data from a JSON file. Two layouts are accepted:
// an object of equally long arrays ({"x": [...], "y": [...]}) and an array of
// flat objects ([{"x": 1, "y": 2}, ...]). Column order follows the document.
type JSONReader struct {
	filePath string
	dataPath string
}

// NewJSONReader creates a reader. dataPath is a gjson path to the table inside
// the document; empty means the document root.
func NewJSONReader(filePath, dataPath string) *JSONReader {
	return &JSONReader{filePath: filePath, dataPath: dataPath}
}

// Load reads the file and builds a dataset with roles resolved from selectors
func (r *JSONReader) Load(selectors dataset.Roles) (*dataset.Dataset, error) {
	log.Printf("[JSONReader] Starting to read JSON file: %s", r.filePath)

	body, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	columns, err := r.parse(body)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.New(columns...)
	if err != nil {
		return nil, err
	}
	names := ds.ColumnNames()
	roles, err := dataset.ResolveRoles(names, selectors)
	if err != nil {
		return nil, err
	}
	if err := ds.SetRoles(roles); err != nil {
		return nil, err
	}
	log.Printf("[JSONReader] JSON file processed (%d columns, %d rows)", len(names), ds.Len())
	return ds, nil
}

// parse extracts the columns from a JSON document
func (r *JSONReader) parse(body []byte) ([]dataset.Column, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", core.ErrInvalidData, r.filePath)
	}

	data := gjson.ParseBytes(body)
	if r.dataPath != "" {
		data = gjson.GetBytes(body, r.dataPath)
		if !data.Exists() {
			return nil, fmt.Errorf("%w: data path '%s' not found", core.ErrInvalidData, r.dataPath)
		}
	}

	switch {
	case data.IsObject():
		return columnsFromObject(data)
	case data.IsArray():
		return columnsFromRecords(data)
	default:
		return nil, fmt.Errorf("%w: data is not an array or object", core.ErrInvalidData)
	}
}

// columnsFromObject reads {"name": [values...]}
func columnsFromObject(data gjson.Result) ([]dataset.Column, error) {
	var columns []dataset.Column
	var err error
	data.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			err = fmt.Errorf("%w: column %q is not an array", core.ErrInvalidData, key.String())
			return false
		}
		column := dataset.Column{Name: key.String()}
		for i, cell := range value.Array() {
			v, parseErr := number(cell)
			if parseErr != nil {
				err = core.NewInvalidDataError(key.String(), i+1, cell.Raw)
				return false
			}
			column.Values = append(column.Values, v)
		}
		columns = append(columns, column)
		return true
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// columnsFromRecords reads [{"name": value, ...}, ...] using the first record's keys
func columnsFromRecords(data gjson.Result) ([]dataset.Column, error) {
	records := data.Array()
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", core.ErrInvalidData)
	}

	var columns []dataset.Column
	records[0].ForEach(func(key, _ gjson.Result) bool {
		columns = append(columns, dataset.Column{Name: key.String()})
		return true
	})

	for i, record := range records {
		if !record.IsObject() {
			return nil, fmt.Errorf("%w: record %d is not an object", core.ErrInvalidData, i+1)
		}
		for j := range columns {
			cell := record.Get(gjson.Escape(columns[j].Name))
			v, err := number(cell)
			if err != nil {
				return nil, core.NewInvalidDataError(columns[j].Name, i+1, cell.Raw)
			}
			columns[j].Values = append(columns[j].Values, v)
		}
	}
	return columns, nil
}

// number accepts JSON numbers and numeric strings
func number(cell gjson.Result) (float64, error) {
	switch cell.Type {
	case gjson.Number:
		return cell.Float(), nil
	case gjson.String:
		return strconv.ParseFloat(cell.Str, 64)
	default:
		return 0, fmt.Errorf("not a number: %s", cell.Raw)
	}
}
