package dataset

import (
	"fmt"

	"gofit/domain/core"
	"gofit/domain/stats"
)

// Column is a named sequence of measurements
type Column struct {
	Name   string
	Values []float64
}

// cacheEntry is a statistics snapshot stamped with the mask version it was computed for
type cacheEntry struct {
	version uint64
	stats   *stats.Statistics
}

// Dataset holds equal-length columns and a selection mask shared by all of them.
// Statistics are memoized per column and go stale whenever the mask changes.
// A Dataset is not safe for concurrent use.
type Dataset struct {
	order   []string
	columns map[string][]float64
	length  int

	mask    []bool
	version uint64

	roles Roles
	cache map[string]cacheEntry
}

// New creates a dataset from columns with every record selected
func New(columns ...Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, core.ErrEmptyDataset
	}

	d := &Dataset{
		order:   make([]string, 0, len(columns)),
		columns: make(map[string][]float64, len(columns)),
		length:  len(columns[0].Values),
		cache:   make(map[string]cacheEntry),
	}
	for _, c := range columns {
		if _, exists := d.columns[c.Name]; exists {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateColumn, c.Name)
		}
		if len(c.Values) != d.length {
			return nil, core.NewLengthMismatchError(fmt.Sprintf("column %q", c.Name), len(c.Values), d.length)
		}
		values := make([]float64, len(c.Values))
		copy(values, c.Values)
		d.order = append(d.order, c.Name)
		d.columns[c.Name] = values
	}

	d.mask = make([]bool, d.length)
	for i := range d.mask {
		d.mask[i] = true
	}
	return d, nil
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return d.length
}

// ColumnNames returns the column names in load order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Column returns a copy of the full, unfiltered column
func (d *Dataset) Column(name string) ([]float64, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, core.NewUnknownColumnError(name)
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// SelectedValues returns the column values of selected records, in record order
func (d *Dataset) SelectedValues(name string) ([]float64, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, core.NewUnknownColumnError(name)
	}
	out := make([]float64, 0, d.SelectedCount())
	for i, v := range values {
		if d.mask[i] {
			out = append(out, v)
		}
	}
	return out, nil
}

// Statistics returns the summary of the selected values of a column.
// It returns nil, nil when no record is selected. The returned value is a
// copy, so the cache cannot be changed through it.
func (d *Dataset) Statistics(name string) (*stats.Statistics, error) {
	if entry, ok := d.cache[name]; ok && entry.version == d.version {
		return copyStatistics(entry.stats), nil
	}

	values, err := d.SelectedValues(name)
	if err != nil {
		return nil, err
	}
	s, err := stats.FromValues(values)
	if err != nil {
		return nil, fmt.Errorf("statistics of %q: %w", name, err)
	}
	d.cache[name] = cacheEntry{version: d.version, stats: s}
	return copyStatistics(s), nil
}

func copyStatistics(s *stats.Statistics) *stats.Statistics {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// RenameColumn renames a column that is not assigned to any role
func (d *Dataset) RenameColumn(oldName, newName string) error {
	values, ok := d.columns[oldName]
	if !ok {
		return core.NewUnknownColumnError(oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, exists := d.columns[newName]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateColumn, newName)
	}
	if role, used := d.roles.roleOf(oldName); used {
		return fmt.Errorf("%w: %q is the %s column", core.ErrColumnInUse, oldName, role)
	}

	delete(d.columns, oldName)
	d.columns[newName] = values
	for i, name := range d.order {
		if name == oldName {
			d.order[i] = newName
		}
	}
	if entry, ok := d.cache[oldName]; ok {
		delete(d.cache, oldName)
		d.cache[newName] = entry
	}
	return nil
}

// Record is one row across all columns
type Record struct {
	Index  int
	Values []float64
}

// Records returns every record with values in column order
func (d *Dataset) Records() []Record {
	return d.records(false)
}

// SelectedRecords returns the selected records with values in column order
func (d *Dataset) SelectedRecords() []Record {
	return d.records(true)
}

func (d *Dataset) records(selectedOnly bool) []Record {
	var out []Record
	for i := 0; i < d.length; i++ {
		if selectedOnly && !d.mask[i] {
			continue
		}
		row := make([]float64, len(d.order))
		for j, name := range d.order {
			row[j] = d.columns[name][i]
		}
		out = append(out, Record{Index: i, Values: row})
	}
	return out
}
