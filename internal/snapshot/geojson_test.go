package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/watershed.report/internal/geo"
	"github.com/banshee-data/watershed.report/internal/wria"
)

func shapedTable() *geo.Table {
	t := geo.NewTable(geo.EPSG4326, wria.ColID, wria.ColName, wria.ColArea)
	t.Append(geo.Feature{
		Geometry: orb.Polygon{orb.Ring{
			{-122.5, 48.5}, {-122.0, 48.5}, {-122.0, 49.0}, {-122.5, 49.0}, {-122.5, 48.5},
		}},
		Props: map[string]any{wria.ColID: 1, wria.ColName: "Nooksack", wria.ColArea: 832000.0},
	})
	return t
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watersheds.geojson")
	require.NoError(t, WriteGeoJSON(shapedTable(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "Nooksack", f.Properties[wria.ColName])
	assert.Equal(t, 832000.0, f.Properties[wria.ColArea])
	assert.Equal(t, "Polygon", f.Geometry.GeoJSONType())
}

func TestWriteGeoJSONRejectsProjectedTable(t *testing.T) {
	tbl := shapedTable()
	merc, err := geo.Reproject(tbl, geo.EPSG3857)
	require.NoError(t, err)

	err = WriteGeoJSON(merc, filepath.Join(t.TempDir(), "x.geojson"))
	assert.Error(t, err)
}

func TestWriteGeoJSONSkipsNilGeometry(t *testing.T) {
	tbl := shapedTable()
	tbl.Append(geo.Feature{Props: map[string]any{wria.ColID: 2}})

	path := filepath.Join(t.TempDir(), "watersheds.geojson")
	require.NoError(t, WriteGeoJSON(tbl, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}
