package wria

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/watershed.report/internal/geo"
	"github.com/banshee-data/watershed.report/internal/monitoring"
)

// cwSquare returns a clockwise ring, the shapefile winding for an
// exterior boundary.
func cwSquare(minX, minY, size float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX, Y: minY + size},
		{X: minX + size, Y: minY + size},
		{X: minX + size, Y: minY},
		{X: minX, Y: minY},
	}
}

// ccwSquare returns a counter-clockwise ring, the winding for a hole.
func ccwSquare(minX, minY, size float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX + size, Y: minY},
		{X: minX + size, Y: minY + size},
		{X: minX, Y: minY + size},
		{X: minX, Y: minY},
	}
}

// writeFixture builds a small WRIA-shaped shapefile on disk and
// returns its path.
func writeFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wria.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	w.SetFields([]shp.Field{
		shp.StringField("WRIA_NR", 10),
		shp.StringField("WRIA_NM", 40),
		shp.StringField("WRIA_AREA_", 20),
		shp.StringField("SHAPE_LEN", 20),
	})

	type rec struct {
		rings [][]shp.Point
		nr    string
		nm    string
		area  string
		slen  string
	}
	records := []rec{
		{[][]shp.Point{cwSquare(-122.5, 48.0, 0.5)}, "1", "Nooksack", "832000.12", "1.1"},
		// Exterior with a hole.
		{[][]shp.Point{cwSquare(-121.0, 46.0, 1.0), ccwSquare(-120.7, 46.3, 0.2)}, "2", "San Juan", "402000.50", "2.2"},
		{[][]shp.Point{cwSquare(-120.0, 47.0, 0.8)}, "3", "Lower Skagit - Samish", "515250.00", "3.3"},
		// Unparsable WRIA number: Shape must drop this row.
		{[][]shp.Point{cwSquare(-119.0, 46.0, 0.3)}, "n/a", "Broken", "100.0", "4.4"},
	}

	for i, r := range records {
		poly := shp.Polygon(*shp.NewPolyLine(r.rings))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, r.nr))
		require.NoError(t, w.WriteAttribute(i, 1, r.nm))
		require.NoError(t, w.WriteAttribute(i, 2, r.area))
		require.NoError(t, w.WriteAttribute(i, 3, r.slen))
	}
	w.Close()
	return path
}

func TestLoad(t *testing.T) {
	tbl, err := Load(writeFixture(t))
	require.NoError(t, err)

	assert.Equal(t, geo.EPSG4326, tbl.CRS)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"WRIA_NR", "WRIA_NM", "WRIA_AREA_", "SHAPE_LEN"}, tbl.Columns)

	// Attributes load as trimmed strings.
	assert.Equal(t, "Nooksack", tbl.Features[0].Props["WRIA_NM"])
	assert.Equal(t, "832000.12", tbl.Features[0].Props["WRIA_AREA_"])
}

func TestLoadGeometryWinding(t *testing.T) {
	tbl, err := Load(writeFixture(t))
	require.NoError(t, err)

	// Single-ring record comes back as a polygon with one ring.
	p0, ok := tbl.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok, "expected orb.Polygon, got %T", tbl.Features[0].Geometry)
	assert.Len(t, p0, 1)

	// The record with a hole keeps both rings on one polygon.
	p1, ok := tbl.Features[1].Geometry.(orb.Polygon)
	require.True(t, ok, "expected orb.Polygon, got %T", tbl.Features[1].Geometry)
	require.Len(t, p1, 2)
	assert.Equal(t, orb.CW, p1[0].Orientation())
	assert.Equal(t, orb.CCW, p1[1].Orientation())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.shp"))
	assert.Error(t, err)
}

func TestShape(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = original }()

	tbl, err := Load(writeFixture(t))
	require.NoError(t, err)

	shaped, err := Shape(tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{ColID, ColName, ColArea}, shaped.Columns)
	// The row with the unparsable WRIA number is dropped.
	require.Equal(t, 3, shaped.Len())

	assert.Equal(t, 1, shaped.Features[0].Props[ColID])
	assert.Equal(t, "Nooksack", shaped.Features[0].Props[ColName])
	assert.InDelta(t, 832000.12, shaped.Features[0].Props[ColArea].(float64), 1e-9)

	// The source table keeps its raw columns and all four rows.
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, "WRIA_NR", tbl.Columns[0])
}

func TestShapeMissingColumn(t *testing.T) {
	tbl := geo.NewTable(geo.EPSG4326, "WRONG")
	_, err := Shape(tbl)
	assert.Error(t, err)
}
