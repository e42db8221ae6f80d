package stats

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/watershed.report/internal/geo"
)

func square(minX, minY, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
		{minX, minY},
	}}
}

func watershedTable() *geo.Table {
	t := geo.NewTable(geo.EPSG4326, "id", "name", "area_acres")
	rows := []struct {
		id   int
		name string
		area float64
		geom orb.Polygon
	}{
		{1, "Nooksack", 832000, square(-122.5, 48.5, 0.5)},
		{2, "San Juan", 402000, square(-123.1, 48.4, 0.3)},
		{3, "Lower Skagit", 515000, square(-122.4, 48.2, 0.4)},
		{4, "Upper Skagit", 980000, square(-121.8, 48.5, 0.6)},
		{5, "Stillaguamish", 440000, square(-122.2, 48.1, 0.35)},
	}
	for _, r := range rows {
		t.Append(geo.Feature{
			Geometry: r.geom,
			Props:    map[string]any{"id": r.id, "name": r.name, "area_acres": r.area},
		})
	}
	return t
}

func TestSummarize(t *testing.T) {
	tbl := watershedTable()
	s, err := Summarize(tbl, "area_acres", "id", "name", []float64{0.25, 0.5, 0.75})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 4, s.MaxArea.ID)
	assert.Equal(t, "Upper Skagit", s.MaxArea.Name)
	assert.Equal(t, 980000.0, s.MaxArea.AreaAcres)
	assert.Equal(t, 3, s.MaxArea.Row)
	assert.Equal(t, 402000.0, s.MinAreaAcres)
	assert.InDelta(t, 633800.0, s.MeanAreaAcres, 1e-6)

	// Empirical quantiles return actual dataset values.
	require.Len(t, s.Thresholds, 3)
	assert.Equal(t, 0.5, s.Thresholds[1].Prob)
	for _, th := range s.Thresholds {
		assert.Contains(t, []float64{402000, 440000, 515000, 832000, 980000}, th.AreaAcres)
	}
	// Thresholds are non-decreasing.
	assert.LessOrEqual(t, s.Thresholds[0].AreaAcres, s.Thresholds[1].AreaAcres)
	assert.LessOrEqual(t, s.Thresholds[1].AreaAcres, s.Thresholds[2].AreaAcres)
}

func TestSummarizeEmptyTable(t *testing.T) {
	tbl := geo.NewTable(geo.EPSG4326, "area_acres")
	_, err := Summarize(tbl, "area_acres", "id", "name", []float64{0.5})
	assert.Error(t, err)
}

func TestSummarizeBadProb(t *testing.T) {
	tbl := watershedTable()
	_, err := Summarize(tbl, "area_acres", "id", "name", []float64{1.5})
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	thresholds := []Threshold{
		{Prob: 0.25, AreaAcres: 440000},
		{Prob: 0.5, AreaAcres: 515000},
		{Prob: 0.75, AreaAcres: 832000},
	}
	values := []float64{402000, 440000, 515000, 832000, 980000}
	classes := Classify(values, thresholds)
	assert.Equal(t, []int{0, 0, 1, 2, 3}, classes)
}

func TestClassifyNoThresholds(t *testing.T) {
	classes := Classify([]float64{1, 2}, nil)
	assert.Equal(t, []int{0, 0}, classes)
}

func TestCentroids(t *testing.T) {
	tbl := watershedTable()
	cs, err := Centroids(tbl, "id", "name")
	require.NoError(t, err)
	require.Len(t, cs, 5)

	assert.Equal(t, 1, cs[0].ID)
	assert.Equal(t, "Nooksack", cs[0].Name)
	// The first square spans lon [-122.5, -122.0], lat [48.5, 49.0].
	assert.InDelta(t, -122.25, cs[0].Lon, 0.01)
	assert.InDelta(t, 48.75, cs[0].Lat, 0.05)
}
