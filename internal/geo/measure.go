package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// Area returns the area of a feature's geometry in square meters.
// Geographic tables use a geodesic (spherical) area; projected tables
// use planar area in the projection's units squared.
func Area(t *Table, i int) (float64, error) {
	if i < 0 || i >= len(t.Features) {
		return 0, fmt.Errorf("area: row %d out of range (%d rows)", i, len(t.Features))
	}
	g := t.Features[i].Geometry
	if g == nil {
		return 0, nil
	}
	if t.CRS == EPSG4326 {
		return orbgeo.Area(g), nil
	}
	return planar.Area(g), nil
}

// Centroid returns the area-weighted centroid of a feature in the
// table's CRS. Geographic geometry is projected to web mercator for
// the computation and the result projected back, so centroids of
// lon/lat tables come back as lon/lat.
func Centroid(t *Table, i int) (orb.Point, error) {
	if i < 0 || i >= len(t.Features) {
		return orb.Point{}, fmt.Errorf("centroid: row %d out of range (%d rows)", i, len(t.Features))
	}
	g := t.Features[i].Geometry
	if g == nil {
		return orb.Point{}, fmt.Errorf("centroid: row %d has no geometry", i)
	}

	if t.CRS == EPSG4326 {
		projected := project.Geometry(orb.Clone(g), project.WGS84.ToMercator)
		c, _ := planar.CentroidArea(projected)
		return project.Mercator.ToWGS84(c), nil
	}

	c, _ := planar.CentroidArea(g)
	return c, nil
}
