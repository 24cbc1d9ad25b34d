package excel

import "gofit/domain/dataset"

// ExcelData represents a raw table read from a CSV file or a worksheet
type ExcelData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, one cell per header
}

// LoadOptions selects the worksheet and the columns that play each fit role.
// Columns are named by header or by 1-based index. With no column given the
// positional defaults of dataset.DefaultRoles apply.
type LoadOptions struct {
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	X     string `json:"x,omitempty" yaml:"x,omitempty"`
	XErr  string `json:"xerr,omitempty" yaml:"xerr,omitempty"`
	Y     string `json:"y,omitempty" yaml:"y,omitempty"`
	YErr  string `json:"yerr,omitempty" yaml:"yerr,omitempty"`
}

// Selectors returns the column selectors as roles
func (o LoadOptions) Selectors() dataset.Roles {
	return dataset.Roles{X: o.X, XErr: o.XErr, Y: o.Y, YErr: o.YErr}
}
