package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Reproject returns a copy of the table with geometry converted to the
// target CRS and the CRS tag updated. The source table is never
// mutated; geometry is cloned before projection. Reprojecting to the
// CRS the table is already in returns a plain copy.
func Reproject(t *Table, target CRS) (*Table, error) {
	if t.CRS == target {
		return t.Copy(), nil
	}

	var proj orb.Projection
	switch {
	case t.CRS == EPSG4326 && target == EPSG3857:
		proj = project.WGS84.ToMercator
	case t.CRS == EPSG3857 && target == EPSG4326:
		proj = project.Mercator.ToWGS84
	default:
		return nil, fmt.Errorf("reproject: unsupported transform %s -> %s", t.CRS, target)
	}

	out := NewTable(target, t.Columns...)
	for _, f := range t.Features {
		props := make(map[string]any, len(f.Props))
		for k, v := range f.Props {
			props[k] = v
		}
		var g orb.Geometry
		if f.Geometry != nil {
			g = project.Geometry(orb.Clone(f.Geometry), proj)
		}
		out.Features = append(out.Features, Feature{Geometry: g, Props: props})
	}
	return out, nil
}

// ProjectPoint converts a single point between the supported frames.
func ProjectPoint(p orb.Point, from, to CRS) (orb.Point, error) {
	switch {
	case from == to:
		return p, nil
	case from == EPSG4326 && to == EPSG3857:
		return project.WGS84.ToMercator(p), nil
	case from == EPSG3857 && to == EPSG4326:
		return project.Mercator.ToWGS84(p), nil
	}
	return orb.Point{}, fmt.Errorf("project point: unsupported transform %s -> %s", from, to)
}
