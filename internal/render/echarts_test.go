package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanionPage(t *testing.T) {
	file := filepath.Join(t.TempDir(), "report.html")

	areas := []AreaRow{
		{Name: "Upper Skagit", AreaAcres: 980000},
		{Name: "Nooksack", AreaAcres: 832000},
	}
	centroids := []CentroidRow{
		{Name: "Upper Skagit", Lon: -121.5, Lat: 48.8},
		{Name: "Nooksack", Lon: -122.25, Lat: 48.75},
	}

	require.NoError(t, CompanionPage(areas, centroids, file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	html := string(data)

	assert.True(t, strings.Contains(html, "echarts"), "page should embed echarts")
	assert.Contains(t, html, "Largest watersheds by area")
	assert.Contains(t, html, "Watershed centroids")
	assert.Contains(t, html, "Upper Skagit")
}

func TestCompanionPageBadPath(t *testing.T) {
	err := CompanionPage(nil, nil, filepath.Join(t.TempDir(), "missing", "report.html"))
	assert.Error(t, err)
}
