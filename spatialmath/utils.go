package spatialmath

import "math"

func halfAngle(angle float64) (float64, float64) {
	return math.Cos(angle / 2), math.Sin(angle / 2)
}
