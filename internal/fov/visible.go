package fov

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Point is a grid coordinate
type Point struct {
	X, Y int
}

// VisibleSet is the snapshot of tiles lit by one Compute call
type VisibleSet struct {
	points mapset.Set[Point]
}

func newVisibleSet() VisibleSet {
	return VisibleSet{points: mapset.New[Point]()}
}

func (v VisibleSet) add(p Point) {
	v.points.Put(p)
}

// Has reports whether (x, y) is visible
func (v VisibleSet) Has(x, y int) bool {
	return v.points.Has(Point{X: x, Y: y})
}

// Len returns the number of visible tiles
func (v VisibleSet) Len() int {
	return v.points.Size()
}

// Each calls fn for every visible tile in no particular order
func (v VisibleSet) Each(fn func(p Point)) {
	v.points.Each(fn)
}

// Points returns the visible tiles sorted row-major
func (v VisibleSet) Points() []Point {
	out := make([]Point, 0, v.points.Size())
	v.points.Each(func(p Point) {
		out = append(out, p)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
