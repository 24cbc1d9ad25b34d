package dataset

import (
	"fmt"
	"strconv"

	"gofit/domain/core"
)

// Role is the part a column plays in a fit
type Role string

const (
	RoleX    Role = "x"
	RoleXErr Role = "xerr"
	RoleY    Role = "y"
	RoleYErr Role = "yerr"
)

// Roles maps fit roles to column names. Empty means unassigned.
type Roles struct {
	X    string `json:"x,omitempty" yaml:"x,omitempty"`
	XErr string `json:"xerr,omitempty" yaml:"xerr,omitempty"`
	Y    string `json:"y,omitempty" yaml:"y,omitempty"`
	YErr string `json:"yerr,omitempty" yaml:"yerr,omitempty"`
}

func (r Roles) column(role Role) string {
	switch role {
	case RoleX:
		return r.X
	case RoleXErr:
		return r.XErr
	case RoleY:
		return r.Y
	case RoleYErr:
		return r.YErr
	}
	return ""
}

func (r Roles) roleOf(name string) (Role, bool) {
	if name == "" {
		return "", false
	}
	for _, role := range []Role{RoleX, RoleXErr, RoleY, RoleYErr} {
		if r.column(role) == name {
			return role, true
		}
	}
	return "", false
}

// SetRoles assigns fit roles after checking every named column exists
func (d *Dataset) SetRoles(roles Roles) error {
	for _, role := range []Role{RoleX, RoleXErr, RoleY, RoleYErr} {
		name := roles.column(role)
		if name == "" {
			continue
		}
		if !d.HasColumn(name) {
			return fmt.Errorf("%s role: %w", role, core.NewUnknownColumnError(name))
		}
	}
	d.roles = roles
	return nil
}

// Roles returns the current role assignment
func (d *Dataset) Roles() Roles {
	return d.roles
}

// RoleColumn returns the column name assigned to role
func (d *Dataset) RoleColumn(role Role) (string, error) {
	name := d.roles.column(role)
	if name == "" {
		return "", fmt.Errorf("%w: %s", core.ErrRoleUnset, role)
	}
	return name, nil
}

// HasRole reports whether role has a column assigned
func (d *Dataset) HasRole(role Role) bool {
	return d.roles.column(role) != ""
}

// RoleValues returns the selected values of the column assigned to role
func (d *Dataset) RoleValues(role Role) ([]float64, error) {
	name, err := d.RoleColumn(role)
	if err != nil {
		return nil, err
	}
	return d.SelectedValues(name)
}

func (d *Dataset) X() ([]float64, error)    { return d.RoleValues(RoleX) }
func (d *Dataset) XErr() ([]float64, error) { return d.RoleValues(RoleXErr) }
func (d *Dataset) Y() ([]float64, error)    { return d.RoleValues(RoleY) }
func (d *Dataset) YErr() ([]float64, error) { return d.RoleValues(RoleYErr) }

// DefaultRoles assigns roles positionally: two columns are x,y; three are x,y,yerr;
// four or more are x,xerr,y,yerr.
func DefaultRoles(columns []string) Roles {
	switch {
	case len(columns) >= 4:
		return Roles{X: columns[0], XErr: columns[1], Y: columns[2], YErr: columns[3]}
	case len(columns) == 3:
		return Roles{X: columns[0], Y: columns[1], YErr: columns[2]}
	case len(columns) == 2:
		return Roles{X: columns[0], Y: columns[1]}
	case len(columns) == 1:
		return Roles{X: columns[0]}
	}
	return Roles{}
}

// IsZero reports whether no role is assigned
func (r Roles) IsZero() bool {
	return r == Roles{}
}

// ResolveRoles turns column selectors into column names. A selector is a column name or a
// 1-based column index. When no selector is given the positional defaults apply.
func ResolveRoles(columns []string, selectors Roles) (Roles, error) {
	if selectors.IsZero() {
		return DefaultRoles(columns), nil
	}

	var resolved Roles
	targets := []*string{&resolved.X, &resolved.XErr, &resolved.Y, &resolved.YErr}
	for i, role := range []Role{RoleX, RoleXErr, RoleY, RoleYErr} {
		selector := selectors.column(role)
		if selector == "" {
			continue
		}
		name, err := resolveColumn(columns, selector)
		if err != nil {
			return Roles{}, fmt.Errorf("%s column: %w", role, err)
		}
		*targets[i] = name
	}
	return resolved, nil
}

// a header match wins over an index so numeric headers stay addressable
func resolveColumn(columns []string, selector string) (string, error) {
	for _, name := range columns {
		if name == selector {
			return name, nil
		}
	}
	index, err := strconv.Atoi(selector)
	if err != nil {
		return "", core.NewUnknownColumnError(selector)
	}
	if index < 1 || index > len(columns) {
		return "", core.NewIndexOutOfRangeError(index-1, len(columns))
	}
	return columns[index-1], nil
}
