// Package stats derives the watershed summary statistics from the
// shaped watershed table: the largest watershed, quantile thresholds
// over the area column, and per-feature centroids.
package stats

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/watershed.report/internal/geo"
)

// MaxEntry identifies the watershed with the largest area.
type MaxEntry struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	AreaAcres float64 `json:"area_acres"`
	Row       int     `json:"-"`
}

// Threshold is one quantile cut over the area column.
type Threshold struct {
	Prob      float64 `json:"prob"`
	AreaAcres float64 `json:"area_acres"`
}

// Centroid is a per-watershed centroid in the table's CRS.
type Centroid struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// Summary holds the derived statistics for one pipeline run.
type Summary struct {
	Count         int         `json:"count"`
	MaxArea       MaxEntry    `json:"max_area"`
	MinAreaAcres  float64     `json:"min_area_acres"`
	MeanAreaAcres float64     `json:"mean_area_acres"`
	Thresholds    []Threshold `json:"quantile_thresholds"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// Summarize computes the summary over the named numeric area column.
// Quantiles use the empirical distribution, so every threshold is an
// actual area from the dataset.
func Summarize(t *geo.Table, areaCol, idCol, nameCol string, probs []float64) (*Summary, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("summarize: table is empty")
	}

	areas, err := t.Numeric(areaCol)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	maxIdx := floats.MaxIdx(areas)
	maxFeat := t.Features[maxIdx]
	maxID, _ := maxFeat.Props[idCol].(int)
	maxName, _ := maxFeat.Props[nameCol].(string)

	sorted := append([]float64(nil), areas...)
	sort.Float64s(sorted)

	thresholds := make([]Threshold, len(probs))
	for i, p := range probs {
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("summarize: quantile probability %v outside (0, 1)", p)
		}
		thresholds[i] = Threshold{
			Prob:      p,
			AreaAcres: stat.Quantile(p, stat.Empirical, sorted, nil),
		}
	}

	return &Summary{
		Count: t.Len(),
		MaxArea: MaxEntry{
			ID:        maxID,
			Name:      maxName,
			AreaAcres: areas[maxIdx],
			Row:       maxIdx,
		},
		MinAreaAcres:  floats.Min(areas),
		MeanAreaAcres: stat.Mean(areas, nil),
		Thresholds:    thresholds,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// Classify assigns each value its quantile class: class k for values
// at or below thresholds[k], class len(thresholds) above the last cut.
// These are the choropleth buckets.
func Classify(values []float64, thresholds []Threshold) []int {
	classes := make([]int, len(values))
	for i, v := range values {
		classes[i] = len(thresholds)
		for k, th := range thresholds {
			if v <= th.AreaAcres {
				classes[i] = k
				break
			}
		}
	}
	return classes
}

// Centroids computes the per-feature centroid table. The table should
// be in EPSG:4326 so the result reads as lon/lat.
func Centroids(t *geo.Table, idCol, nameCol string) ([]Centroid, error) {
	out := make([]Centroid, 0, t.Len())
	for i := range t.Features {
		c, err := geo.Centroid(t, i)
		if err != nil {
			return nil, fmt.Errorf("centroids: row %d: %w", i, err)
		}
		id, _ := t.Features[i].Props[idCol].(int)
		name, _ := t.Features[i].Props[nameCol].(string)
		out = append(out, Centroid{ID: id, Name: name, Lon: c.X(), Lat: c.Y()})
	}
	return out, nil
}
