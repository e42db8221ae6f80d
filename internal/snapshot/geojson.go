package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/watershed.report/internal/fsutil"
	"github.com/banshee-data/watershed.report/internal/geo"
	"github.com/banshee-data/watershed.report/internal/wria"
)

// WriteGeoJSON writes the shaped table as a GeoJSON feature
// collection. GeoJSON is defined over geographic coordinates, so the
// table must be in EPSG:4326. The write goes through a temp file and
// rename so a failed run never leaves a truncated snapshot.
func WriteGeoJSON(t *geo.Table, path string) error {
	if t.CRS != geo.EPSG4326 {
		return fmt.Errorf("write geojson: table is in %s, want %s", t.CRS, geo.EPSG4326)
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range t.Features {
		if f.Geometry == nil {
			continue
		}
		gf := geojson.NewFeature(f.Geometry)
		if id, ok := f.Props[wria.ColID]; ok {
			gf.ID = id
		}
		for k, v := range f.Props {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
