package render

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AreaRow is one bar in the companion chart.
type AreaRow struct {
	Name      string
	AreaAcres float64
}

// CentroidRow is one point in the companion scatter.
type CentroidRow struct {
	Name string
	Lon  float64
	Lat  float64
}

// CompanionPage writes a static HTML page with a bar chart of the
// largest watersheds and a scatter of the centroids. The page is a
// plain file; open it in a browser.
func CompanionPage(areas []AreaRow, centroids []CentroidRow, file string) error {
	page := components.NewPage()
	page.AddCharts(areaBar(areas), centroidScatter(centroids))

	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("companion page: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("companion page: render: %w", err)
	}
	return nil
}

func areaBar(areas []AreaRow) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Watershed Report",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Largest watersheds by area",
			Subtitle: fmt.Sprintf("top %d of the WRIA boundary set", len(areas)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, len(areas))
	data := make([]opts.BarData, len(areas))
	for i, a := range areas {
		names[i] = a.Name
		data[i] = opts.BarData{Value: a.AreaAcres}
	}
	bar.SetXAxis(names).AddSeries("area (acres)", data)
	return bar
}

func centroidScatter(centroids []CentroidRow) *charts.Scatter {
	minLon, maxLon := 180.0, -180.0
	minLat, maxLat := 90.0, -90.0
	data := make([]opts.ScatterData, len(centroids))
	for i, c := range centroids {
		data[i] = opts.ScatterData{
			Name:  c.Name,
			Value: []interface{}{c.Lon, c.Lat},
		}
		if c.Lon < minLon {
			minLon = c.Lon
		}
		if c.Lon > maxLon {
			maxLon = c.Lon
		}
		if c.Lat < minLat {
			minLat = c.Lat
		}
		if c.Lat > maxLat {
			maxLat = c.Lat
		}
	}

	// Pad the axis range so edge points stay visible.
	const pad = 0.25

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Watershed centroids",
			Subtitle: fmt.Sprintf("%d centroids (lon/lat)", len(centroids)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minLon - pad, Max: maxLon + pad, Name: "Longitude"}),
		charts.WithYAxisOpts(opts.YAxis{Min: minLat - pad, Max: maxLat + pad, Name: "Latitude"}),
	)
	scatter.AddSeries("centroids", data)
	return scatter
}
