// Package geo provides the in-memory spatial table the pipeline works
// on: features (geometry plus named attribute values) tagged with the
// EPSG code their coordinates are expressed in, along with the table
// shaping operations (rename, subset, filter) and measurement helpers.
package geo

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// CRS identifies a coordinate reference system by EPSG code.
type CRS int

const (
	// EPSG4326 is geographic WGS84: longitude/latitude in degrees.
	EPSG4326 CRS = 4326

	// EPSG3857 is web mercator: easting/northing in meters.
	EPSG3857 CRS = 3857
)

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(c))
}

// Feature is one row of a Table.
type Feature struct {
	Geometry orb.Geometry
	Props    map[string]any
}

// Table is an ordered attribute table where every row carries a
// geometry. The CRS tag always matches the frame the coordinates are
// in; Reproject is the only operation that changes it.
type Table struct {
	CRS      CRS
	Columns  []string
	Features []Feature
}

// NewTable creates an empty table with the given column order.
func NewTable(crs CRS, columns ...string) *Table {
	return &Table{
		CRS:     crs,
		Columns: append([]string(nil), columns...),
	}
}

// Append adds a feature row. Missing attribute values are allowed;
// they simply read back as nil.
func (t *Table) Append(f Feature) {
	if f.Props == nil {
		f.Props = make(map[string]any)
	}
	t.Features = append(t.Features, f)
}

// Len returns the number of feature rows.
func (t *Table) Len() int {
	return len(t.Features)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RenameColumn renames an attribute column in place, updating every
// row. It fails if the old name is absent or the new name is taken.
func (t *Table) RenameColumn(old, new string) error {
	if !t.HasColumn(old) {
		return fmt.Errorf("rename column: no column %q", old)
	}
	if t.HasColumn(new) {
		return fmt.Errorf("rename column: column %q already exists", new)
	}
	for i, c := range t.Columns {
		if c == old {
			t.Columns[i] = new
		}
	}
	for _, f := range t.Features {
		if v, ok := f.Props[old]; ok {
			f.Props[new] = v
			delete(f.Props, old)
		}
	}
	return nil
}

// Select returns a new table containing only the named columns, in the
// order given. Geometry always survives a Select. Attribute maps are
// copied; geometry is shared, since no table operation mutates it.
func (t *Table) Select(columns ...string) (*Table, error) {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("select: no column %q", c)
		}
	}
	out := NewTable(t.CRS, columns...)
	for _, f := range t.Features {
		props := make(map[string]any, len(columns))
		for _, c := range columns {
			if v, ok := f.Props[c]; ok {
				props[c] = v
			}
		}
		out.Append(Feature{Geometry: f.Geometry, Props: props})
	}
	return out, nil
}

// Filter returns a new table keeping the rows the predicate accepts.
// Rows are shared with the source table.
func (t *Table) Filter(keep func(Feature) bool) *Table {
	out := NewTable(t.CRS, t.Columns...)
	for _, f := range t.Features {
		if keep(f) {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// Copy returns a deep copy of the table's rows (attribute maps are
// duplicated, geometry is shared).
func (t *Table) Copy() *Table {
	out := NewTable(t.CRS, t.Columns...)
	for _, f := range t.Features {
		props := make(map[string]any, len(f.Props))
		for k, v := range f.Props {
			props[k] = v
		}
		out.Features = append(out.Features, Feature{Geometry: f.Geometry, Props: props})
	}
	return out
}

// Numeric extracts a column as float64 values, one per row. Integer
// values are widened; anything else is an error naming the row.
func (t *Table) Numeric(column string) ([]float64, error) {
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("numeric: no column %q", column)
	}
	out := make([]float64, len(t.Features))
	for i, f := range t.Features {
		switch v := f.Props[column].(type) {
		case float64:
			out[i] = v
		case int:
			out[i] = float64(v)
		default:
			return nil, fmt.Errorf("numeric: row %d column %q holds %T, not a number", i, column, f.Props[column])
		}
	}
	return out, nil
}

// SortByNumeric sorts rows by a numeric column, descending when desc
// is set. Sorting is stable so equal areas keep their file order.
func (t *Table) SortByNumeric(column string, desc bool) error {
	vals, err := t.Numeric(column)
	if err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	type row struct {
		f Feature
		v float64
	}
	rows := make([]row, len(t.Features))
	for i, f := range t.Features {
		rows[i] = row{f: f, v: vals[i]}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return rows[i].v > rows[j].v
		}
		return rows[i].v < rows[j].v
	})
	for i, r := range rows {
		t.Features[i] = r.f
	}
	return nil
}

// Bounds returns the union of all feature bounds. An empty table
// returns the zero bound.
func (t *Table) Bounds() orb.Bound {
	var b orb.Bound
	first := true
	for _, f := range t.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			b = f.Geometry.Bound()
			first = false
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b
}
