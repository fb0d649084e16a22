package footprint

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EqualAreaKm2 returns the area of an EPSG:4326 geometry in square kilometers,
// measured on the sphere. Points have no area.
func EqualAreaKm2(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return geo.Area(g) / 1e6
}
