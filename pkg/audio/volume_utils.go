package audio

import "math"

// silenceLevel is the linear level at or below which ambience is muted.
const silenceLevel = 0.01

// clampVolume limits a configured or requested level to 0..1. NaN mutes.
func clampVolume(vol float64) float64 {
	switch {
	case math.IsNaN(vol), vol < 0:
		return 0
	case vol > 1:
		return 1
	}
	return vol
}

// gain maps a linear 0..1 level to the base-2 exponent effects.Volume expects,
// and reports whether the level should be played as silence.
func gain(vol float64) (power float64, silent bool) {
	vol = clampVolume(vol)
	if vol <= silenceLevel {
		return -10, true
	}
	return math.Log2(vol), false
}
