// Package geometry converts outcome probabilities into ring chart arcs.
//
// Segments are laid out in a fixed order, Home then Draw then Away, each
// starting where the previous one ended. Offsets follow the SVG
// stroke-dashoffset convention and are therefore non-positive.
package geometry

import (
	"math"

	"github.com/okian/matchwinner/internal/domain/model"
)

// Ring dimensions.
const (
	Radius        = 40.0
	Circumference = 2 * math.Pi * Radius
)

// Segment indexes into the array returned by ComputeArcs.
const (
	SegmentHome = iota
	SegmentDraw
	SegmentAway
)

// ArcDescriptor is one segment of the ring: its length along the
// circumference and the offset at which it starts.
type ArcDescriptor struct {
	Length float64 `json:"length"`
	Offset float64 `json:"offset"`
}

// ComputeArcs maps three percentages to three arcs of a circle with
// circumference Circumference. Values are not renormalised; inputs that do
// not sum to 100 produce gaps or overlap. NaN, infinite and negative values
// count as zero.
func ComputeArcs(p model.Probabilities) [3]ArcDescriptor {
	home := fraction(p.Home)
	draw := fraction(p.Draw)
	away := fraction(p.Away)

	return [3]ArcDescriptor{
		SegmentHome: {Length: home, Offset: 0},
		SegmentDraw: {Length: draw, Offset: -home},
		SegmentAway: {Length: away, Offset: -(home + draw)},
	}
}

func fraction(pct float64) float64 {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= 0 {
		return 0
	}
	l := pct / 100 * Circumference
	if math.IsInf(l, 0) {
		return 0
	}
	return l
}
