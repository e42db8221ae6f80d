// Package units converts between the area units that show up in the
// watershed dataset and its reports. The source attribute table
// carries areas in acres; plots and summaries also quote km² and mi².
package units

import "fmt"

const (
	// SquareMetersPerAcre is the international acre.
	SquareMetersPerAcre = 4046.8564224

	// AcresPerSquareMile for the survey-friendly unit.
	AcresPerSquareMile = 640.0
)

// AcresToSquareKm converts acres to square kilometers.
func AcresToSquareKm(acres float64) float64 {
	return acres * SquareMetersPerAcre / 1e6
}

// AcresToSquareMiles converts acres to square miles.
func AcresToSquareMiles(acres float64) float64 {
	return acres / AcresPerSquareMile
}

// SquareMetersToAcres converts square meters to acres.
func SquareMetersToAcres(m2 float64) float64 {
	return m2 / SquareMetersPerAcre
}

// FormatAcres renders an acreage for titles and summaries, scaling to
// thousands or millions so axis labels stay short.
func FormatAcres(acres float64) string {
	switch {
	case acres >= 1e6:
		return fmt.Sprintf("%.2fM acres", acres/1e6)
	case acres >= 1e3:
		return fmt.Sprintf("%.0fk acres", acres/1e3)
	default:
		return fmt.Sprintf("%.0f acres", acres)
	}
}
