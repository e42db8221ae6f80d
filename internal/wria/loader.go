// Package wria loads the Washington State Watershed Resource
// Inventory Area boundary shapefile into a spatial table and shapes
// its attribute columns into the canonical form the rest of the
// pipeline expects.
package wria

import (
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/banshee-data/watershed.report/internal/geo"
	"github.com/banshee-data/watershed.report/internal/monitoring"
)

// Canonical column names after shaping.
const (
	ColID   = "id"
	ColName = "name"
	ColArea = "area_acres"
)

// Raw DBF field names as the agency distributes them.
const (
	RawColNumber = "WRIA_NR"
	RawColName   = "WRIA_NM"
	RawColArea   = "WRIA_AREA_"
)

// Load reads a polygon shapefile into a table in EPSG:4326, carrying
// every DBF attribute as a string column. Rows without usable polygon
// geometry are skipped with a warning; file-level errors propagate.
func Load(path string) (*geo.Table, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.String()
	}

	t := geo.NewTable(geo.EPSG4326, columns...)
	for r.Next() {
		row, shape := r.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			monitoring.Logf("wria: skipping record %d: no polygon geometry", row)
			continue
		}

		props := make(map[string]any, len(fields))
		for col := range fields {
			props[columns[col]] = strings.TrimSpace(r.ReadAttribute(row, col))
		}

		t.Append(geo.Feature{
			Geometry: polygonGeometry(poly),
			Props:    props,
		})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return t, nil
}

// polygonGeometry assembles shapefile parts into orb geometry. Ring
// winding follows the shapefile convention: clockwise rings are
// exterior boundaries, counter-clockwise rings are holes in the
// preceding exterior.
func polygonGeometry(p *shp.Polygon) orb.Geometry {
	var polys orb.MultiPolygon

	for part := 0; part < len(p.Parts); part++ {
		start := int(p.Parts[part])
		end := len(p.Points)
		if part+1 < len(p.Parts) {
			end = int(p.Parts[part+1])
		}
		if end-start < 3 {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}

		if ring.Orientation() == orb.CW || len(polys) == 0 {
			polys = append(polys, orb.Polygon{ring})
		} else {
			polys[len(polys)-1] = append(polys[len(polys)-1], ring)
		}
	}

	if len(polys) == 1 {
		return polys[0]
	}
	return polys
}

// Shape renames the agency columns to id, name and area_acres, parses
// the numeric values, and subsets the table to those three columns.
// Rows whose WRIA number or area fail to parse are dropped with a
// warning. The input table is not modified.
func Shape(t *geo.Table) (*geo.Table, error) {
	shaped := t.Copy()

	renames := [][2]string{
		{RawColNumber, ColID},
		{RawColName, ColName},
		{RawColArea, ColArea},
	}
	for _, rn := range renames {
		if err := shaped.RenameColumn(rn[0], rn[1]); err != nil {
			return nil, fmt.Errorf("shape: %w", err)
		}
	}

	shaped, err := shaped.Select(ColID, ColName, ColArea)
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}

	kept := shaped.Features[:0]
	for i, f := range shaped.Features {
		id, idErr := strconv.Atoi(asString(f.Props[ColID]))
		area, areaErr := strconv.ParseFloat(asString(f.Props[ColArea]), 64)
		if idErr != nil || areaErr != nil {
			monitoring.Logf("wria: dropping row %d: unparsable attributes (id=%v area=%v)",
				i, f.Props[ColID], f.Props[ColArea])
			continue
		}
		f.Props[ColID] = id
		f.Props[ColArea] = area
		kept = append(kept, f)
	}
	shaped.Features = kept
	return shaped, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
