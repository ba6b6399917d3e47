package peer

import "math"

// Allocate estimates a subregion's consumption as its share of aggregate
// generation applied to aggregate consumption. ok is false when aggregate
// generation is zero or the result is not finite.
func Allocate(subGeneration, aggGeneration, aggConsumption float64) (float64, bool) {
	if aggGeneration == 0 {
		return 0, false
	}
	v := subGeneration / aggGeneration * aggConsumption
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
