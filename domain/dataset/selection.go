package dataset

import (
	"gofit/domain/core"
)

// Select includes record i in statistics and fitting
func (d *Dataset) Select(i int) error {
	return d.setRecord(i, true)
}

// Unselect excludes record i from statistics and fitting
func (d *Dataset) Unselect(i int) error {
	return d.setRecord(i, false)
}

func (d *Dataset) setRecord(i int, selected bool) error {
	if i < 0 || i >= d.length {
		return core.NewIndexOutOfRangeError(i, d.length)
	}
	d.mask[i] = selected
	d.invalidate()
	return nil
}

// SetMask replaces the whole selection mask
func (d *Dataset) SetMask(mask []bool) error {
	if len(mask) != d.length {
		return core.NewLengthMismatchError("mask", len(mask), d.length)
	}
	copy(d.mask, mask)
	d.invalidate()
	return nil
}

// SelectAll selects every record
func (d *Dataset) SelectAll() {
	d.fill(true)
}

// UnselectAll unselects every record
func (d *Dataset) UnselectAll() {
	d.fill(false)
}

func (d *Dataset) fill(selected bool) {
	for i := range d.mask {
		d.mask[i] = selected
	}
	d.invalidate()
}

// IsSelected reports whether record i is selected
func (d *Dataset) IsSelected(i int) (bool, error) {
	if i < 0 || i >= d.length {
		return false, core.NewIndexOutOfRangeError(i, d.length)
	}
	return d.mask[i], nil
}

// Mask returns a copy of the selection mask
func (d *Dataset) Mask() []bool {
	out := make([]bool, len(d.mask))
	copy(out, d.mask)
	return out
}

// SelectedCount returns the number of selected records
func (d *Dataset) SelectedCount() int {
	n := 0
	for _, selected := range d.mask {
		if selected {
			n++
		}
	}
	return n
}

// invalidate marks every cached statistic as stale. Recomputation happens on the next read.
func (d *Dataset) invalidate() {
	d.version++
}
