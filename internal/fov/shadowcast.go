// Package fov computes field of view with recursive shadowcasting.
//
// The visible region around an origin is split into eight 45° octants. One
// recursive scan handles a single octant in local (dx, dy) coordinates; the
// multipliers below rotate and reflect those coordinates onto the grid:
//
//	x = ox + dx*xx + dy*xy
//	y = oy + dx*yx + dy*yy
//
// Each scan walks rows outward from the origin, keeping a slope interval
// [start, end] of the octant that is still lit. An opaque run inside a row
// narrows the interval for the rows behind it.
package fov

// octants holds (xx, xy, yx, yy) for each of the eight octants
var octants = [8][4]int{
	{1, 0, 0, 1},
	{0, 1, 1, 0},
	{0, -1, 1, 0},
	{-1, 0, 0, 1},
	{-1, 0, 0, -1},
	{0, -1, -1, 0},
	{0, 1, -1, 0},
	{1, 0, 0, -1},
}

// TransparencyFunc reports whether light passes through (x, y)
type TransparencyFunc func(x, y int) bool

// Bounds are the grid dimensions; coordinates outside [0,Width)x[0,Height)
// are opaque and never visible.
type Bounds struct {
	Width, Height int
}

func (b Bounds) contains(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Map is the read-only grid view the engine needs
type Map interface {
	IsTransparent(x, y int) bool
	Size() (width, height int)
}

// ComputeGrid returns the tiles visible from (ox, oy) on m
func ComputeGrid(m Map, ox, oy, radius int) VisibleSet {
	w, h := m.Size()
	return Compute(m.IsTransparent, Bounds{Width: w, Height: h}, ox, oy, radius)
}

// Compute returns every tile visible from (ox, oy) within radius. A tile is
// within radius when dx²+dy² <= radius². The origin is always visible when
// it lies inside bounds.
func Compute(transparent TransparencyFunc, bounds Bounds, ox, oy, radius int) VisibleSet {
	visible := newVisibleSet()
	if !bounds.contains(ox, oy) {
		return visible
	}
	visible.add(Point{X: ox, Y: oy})
	if radius <= 0 {
		return visible
	}

	s := &scan{
		transparent: transparent,
		bounds:      bounds,
		ox:          ox,
		oy:          oy,
		radius:      radius,
		visible:     visible,
	}
	for _, m := range octants {
		s.castLight(1, 1.0, 0.0, m[0], m[1], m[2], m[3])
	}
	return visible
}

// scan carries the per-call state shared by all octants
type scan struct {
	transparent TransparencyFunc
	bounds      Bounds
	ox, oy      int
	radius      int
	visible     VisibleSet
}

func (s *scan) opaque(x, y int) bool {
	return !s.bounds.contains(x, y) || !s.transparent(x, y)
}

// castLight scans one octant from row onward, lighting tiles whose slopes
// fall inside [start, end]. Slopes shrink from 1 at the diagonal to 0 on
// the axis.
func (s *scan) castLight(row int, start, end float64, xx, xy, yx, yy int) {
	if start < end {
		return
	}
	radiusSq := s.radius * s.radius
	newStart := 0.0

	for j := row; j <= s.radius; j++ {
		dy := -j
		blocked := false

		for dx := -j; dx <= 0; dx++ {
			x := s.ox + dx*xx + dy*xy
			y := s.oy + dx*yx + dy*yy

			lSlope := (float64(dx) - 0.5) / (float64(dy) + 0.5)
			rSlope := (float64(dx) + 0.5) / (float64(dy) - 0.5)

			if start < rSlope {
				continue
			}
			if end > lSlope {
				break
			}

			if dx*dx+dy*dy <= radiusSq && s.bounds.contains(x, y) {
				s.visible.add(Point{X: x, Y: y})
			}

			opaque := s.opaque(x, y)
			if blocked {
				if opaque {
					newStart = rSlope
					continue
				}
				blocked = false
				start = newStart
			} else if opaque && j < s.radius {
				blocked = true
				s.castLight(j+1, start, lSlope, xx, xy, yx, yy)
				newStart = rSlope
			}
		}

		if blocked {
			break
		}
	}
}
