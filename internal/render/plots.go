// Package render draws the static map plots with
// gonum/plot and writes the interactive companion page with
// go-echarts. All output is plain files; nothing here serves HTTP.
package render

import (
	"fmt"
	"image/color"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/watershed.report/internal/geo"
)

// Options carry plot geometry and labeling shared by the map plots.
type Options struct {
	Title    string
	WidthIn  float64
	HeightIn float64
}

var (
	outlineColor   = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	highlightFill  = color.RGBA{R: 222, G: 119, B: 49, A: 255}
	backgroundFill = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	centroidColor  = color.RGBA{R: 180, G: 30, B: 30, A: 255}
)

// ringXYs adapts an orb ring to the plotter's XY interface.
type ringXYs orb.Ring

func (r ringXYs) Len() int                    { return len(r) }
func (r ringXYs) XY(i int) (float64, float64) { return r[i][0], r[i][1] }

// featurePolygons flattens a feature geometry into its polygons.
func featurePolygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return v
	}
	return nil
}

func newMapPlot(t *geo.Table, opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	if t.CRS == geo.EPSG4326 {
		p.X.Label.Text = "Longitude"
		p.Y.Label.Text = "Latitude"
	} else {
		p.X.Label.Text = "Easting (m)"
		p.Y.Label.Text = "Northing (m)"
	}
	return p
}

// addPolygon adds one filled polygon (exterior plus holes) to the
// plot and returns the plotter for legend thumbnails.
func addPolygon(p *plot.Plot, poly orb.Polygon, fill color.Color) (*plotter.Polygon, error) {
	xys := make([]plotter.XYer, 0, len(poly))
	for _, ring := range poly {
		xys = append(xys, ringXYs(ring))
	}
	pg, err := plotter.NewPolygon(xys...)
	if err != nil {
		return nil, err
	}
	pg.Color = fill
	pg.LineStyle.Color = outlineColor
	pg.LineStyle.Width = vg.Points(0.5)
	p.Add(pg)
	return pg, nil
}

func savePlot(p *plot.Plot, opts Options, file string) error {
	w := vg.Length(opts.WidthIn) * vg.Inch
	h := vg.Length(opts.HeightIn) * vg.Inch
	if err := p.Save(w, h, file); err != nil {
		return fmt.Errorf("save plot %s: %w", file, err)
	}
	return nil
}

// Boundaries draws the plain outline map of every watershed.
func Boundaries(t *geo.Table, opts Options, file string) error {
	p := newMapPlot(t, opts)
	for i, f := range t.Features {
		for _, poly := range featurePolygons(f.Geometry) {
			if _, err := addPolygon(p, poly, backgroundFill); err != nil {
				return fmt.Errorf("boundaries: row %d: %w", i, err)
			}
		}
	}
	return savePlot(p, opts, file)
}

// Choropleth fills each watershed with its quantile class color.
// classes must be parallel to the table rows; classLabels names each
// class for the legend.
func Choropleth(t *geo.Table, classes []int, classLabels []string, opts Options, file string) error {
	if len(classes) != t.Len() {
		return fmt.Errorf("choropleth: %d classes for %d rows", len(classes), t.Len())
	}

	nClasses := len(classLabels)
	for _, c := range classes {
		if c < 0 || c >= nClasses {
			return fmt.Errorf("choropleth: class %d out of range (%d labels)", c, nClasses)
		}
	}
	fills := Ramp(nClasses)

	p := newMapPlot(t, opts)
	legendDone := make([]bool, nClasses)
	for i, f := range t.Features {
		for _, poly := range featurePolygons(f.Geometry) {
			pg, err := addPolygon(p, poly, fills[classes[i]])
			if err != nil {
				return fmt.Errorf("choropleth: row %d: %w", i, err)
			}
			if !legendDone[classes[i]] {
				p.Legend.Add(classLabels[classes[i]], pg)
				legendDone[classes[i]] = true
			}
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return savePlot(p, opts, file)
}

// CentroidOverlay draws the outline map with a marker at each
// centroid.
func CentroidOverlay(t *geo.Table, centroids []orb.Point, opts Options, file string) error {
	p := newMapPlot(t, opts)
	for i, f := range t.Features {
		for _, poly := range featurePolygons(f.Geometry) {
			if _, err := addPolygon(p, poly, backgroundFill); err != nil {
				return fmt.Errorf("centroid overlay: row %d: %w", i, err)
			}
		}
	}

	pts := make(plotter.XYs, len(centroids))
	for i, c := range centroids {
		pts[i] = plotter.XY{X: c.X(), Y: c.Y()}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("centroid overlay: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Color = centroidColor
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(scatter)
	p.Legend.Add("centroid", scatter)
	p.Legend.Top = true

	return savePlot(p, opts, file)
}

// Highlight fills a single row's watershed and leaves the rest as
// background, the "largest watershed" plot.
func Highlight(t *geo.Table, row int, opts Options, file string) error {
	if row < 0 || row >= t.Len() {
		return fmt.Errorf("highlight: row %d out of range (%d rows)", row, t.Len())
	}

	p := newMapPlot(t, opts)
	labeled := false
	for i, f := range t.Features {
		fill := color.Color(backgroundFill)
		if i == row {
			fill = highlightFill
		}
		for _, poly := range featurePolygons(f.Geometry) {
			pg, err := addPolygon(p, poly, fill)
			if err != nil {
				return fmt.Errorf("highlight: row %d: %w", i, err)
			}
			if i == row && !labeled {
				if name, ok := t.Features[i].Props["name"].(string); ok {
					p.Legend.Add(name, pg)
					labeled = true
				}
			}
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return savePlot(p, opts, file)
}
