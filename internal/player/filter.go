package player

import (
	"math"
	"strconv"
	"strings"
)

// A single atempo stage only accepts factors in roughly the 0.5–2.0
// range; anything beyond that has to be decomposed into a chain.
const (
	atempoMax = 2.0
	atempoMin = 0.5
)

// FilterChain builds the ffmpeg -af expression for a playback tempo
// factor. Factors outside a single atempo stage become a chain, e.g.
// 3.0 yields "atempo=2.0,atempo=1.5". A factor of 1.0 (or anything
// non-positive) yields the pass-through "anull" filter.
func FilterChain(speed float64) string {
	if speed <= 0 {
		speed = 1.0
	}

	var stages []string
	for speed > atempoMax {
		stages = append(stages, stage(atempoMax))
		speed /= atempoMax
	}
	for speed < atempoMin {
		stages = append(stages, stage(atempoMin))
		speed /= atempoMin
	}
	if math.Abs(speed-1.0) > 0.001 {
		stages = append(stages, stage(speed))
	}

	if len(stages) == 0 {
		return "anull"
	}
	return strings.Join(stages, ",")
}

func stage(factor float64) string {
	s := strconv.FormatFloat(factor, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return "atempo=" + s
}
