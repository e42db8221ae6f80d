// Package config loads the pipeline configuration. The schema uses
// pointer fields so a partial JSON file only overrides what it names;
// the Get* accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultConfigPath is the canonical defaults file checked into the
// repository. It is the single source of truth for default values.
const DefaultConfigPath = "config/watershed.defaults.json"

// Default values applied when neither a config file nor a flag
// overrides them.
const (
	defaultSourceURL     = "ftp://www.ecy.wa.gov/gis_a/inlandWaters/wria.zip"
	defaultDataDir       = "data"
	defaultOutputDir     = "out"
	defaultSnapshotDB    = "out/watersheds.db"
	defaultShapefileName = "wria.shp"
	defaultPlotWidthIn   = 10.0
	defaultPlotHeightIn  = 8.0
	defaultTopN          = 10
)

// defaultQuantileProbs are the quartile cut points derived from the
// area column.
var defaultQuantileProbs = []float64{0.25, 0.5, 0.75}

// Config is the root pipeline configuration. All fields are optional
// in the JSON file; omitted fields fall back to defaults.
type Config struct {
	// Acquisition
	SourceURL     *string `json:"source_url,omitempty"`
	DataDir       *string `json:"data_dir,omitempty"`
	ShapefileName *string `json:"shapefile_name,omitempty"`

	// Outputs
	OutputDir  *string `json:"output_dir,omitempty"`
	SnapshotDB *string `json:"snapshot_db,omitempty"`

	// Statistics
	QuantileProbs []float64 `json:"quantile_probs,omitempty"`
	TopN          *int      `json:"top_n,omitempty"`

	// Plot geometry (inches)
	PlotWidthIn  *float64 `json:"plot_width_in,omitempty"`
	PlotHeightIn *float64 `json:"plot_height_in,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The path must have a .json
// extension and the file must be under 1MB. Omitted fields keep their
// defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set. Unset fields are always
// valid because their defaults are.
func (c *Config) Validate() error {
	for _, p := range c.QuantileProbs {
		if p <= 0 || p >= 1 {
			return fmt.Errorf("quantile_probs: probability %v outside (0, 1)", p)
		}
	}
	if len(c.QuantileProbs) > 0 && !sort.Float64sAreSorted(c.QuantileProbs) {
		return fmt.Errorf("quantile_probs must be ascending")
	}
	if c.TopN != nil && *c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", *c.TopN)
	}
	if c.PlotWidthIn != nil && *c.PlotWidthIn <= 0 {
		return fmt.Errorf("plot_width_in must be positive, got %v", *c.PlotWidthIn)
	}
	if c.PlotHeightIn != nil && *c.PlotHeightIn <= 0 {
		return fmt.Errorf("plot_height_in must be positive, got %v", *c.PlotHeightIn)
	}
	return nil
}

// GetSourceURL returns the archive URL to fetch.
func (c *Config) GetSourceURL() string {
	if c.SourceURL != nil {
		return *c.SourceURL
	}
	return defaultSourceURL
}

// GetDataDir returns the directory the archive is downloaded and
// extracted into.
func (c *Config) GetDataDir() string {
	if c.DataDir != nil {
		return *c.DataDir
	}
	return defaultDataDir
}

// GetShapefileName returns the shapefile expected inside the archive.
func (c *Config) GetShapefileName() string {
	if c.ShapefileName != nil {
		return *c.ShapefileName
	}
	return defaultShapefileName
}

// GetOutputDir returns the directory plots and snapshots land in.
func (c *Config) GetOutputDir() string {
	if c.OutputDir != nil {
		return *c.OutputDir
	}
	return defaultOutputDir
}

// GetSnapshotDB returns the snapshot database path.
func (c *Config) GetSnapshotDB() string {
	if c.SnapshotDB != nil {
		return *c.SnapshotDB
	}
	return defaultSnapshotDB
}

// GetQuantileProbs returns the quantile cut probabilities, ascending.
func (c *Config) GetQuantileProbs() []float64 {
	if len(c.QuantileProbs) > 0 {
		return c.QuantileProbs
	}
	return defaultQuantileProbs
}

// GetTopN returns how many watersheds the companion bar chart shows.
func (c *Config) GetTopN() int {
	if c.TopN != nil {
		return *c.TopN
	}
	return defaultTopN
}

// GetPlotWidthIn returns the plot width in inches.
func (c *Config) GetPlotWidthIn() float64 {
	if c.PlotWidthIn != nil {
		return *c.PlotWidthIn
	}
	return defaultPlotWidthIn
}

// GetPlotHeightIn returns the plot height in inches.
func (c *Config) GetPlotHeightIn() float64 {
	if c.PlotHeightIn != nil {
		return *c.PlotHeightIn
	}
	return defaultPlotHeightIn
}
