package fov

import (
	"testing"
)

// testMap is a glyph map where '#' is opaque and anything else is open
type testMap struct {
	rows []string
}

func newTestMap(rows ...string) *testMap {
	return &testMap{rows: rows}
}

// openMap creates a fully transparent width x height map
func openMap(width, height int) *testMap {
	rows := make([]string, height)
	line := make([]byte, width)
	for i := range line {
		line[i] = '.'
	}
	for y := range rows {
		rows[y] = string(line)
	}
	return &testMap{rows: rows}
}

func (m *testMap) Size() (int, int) {
	return len(m.rows[0]), len(m.rows)
}

func (m *testMap) IsTransparent(x, y int) bool {
	w, h := m.Size()
	if x < 0 || x >= w || y < 0 || y >= h {
		return false
	}
	return m.rows[y][x] != '#'
}

// setWall returns a copy of m with (x, y) made opaque
func (m *testMap) setWall(x, y int) *testMap {
	rows := append([]string(nil), m.rows...)
	line := []byte(rows[y])
	line[x] = '#'
	rows[y] = string(line)
	return &testMap{rows: rows}
}

// disc returns the in-bounds lattice points within radius of (ox, oy)
func disc(width, height, ox, oy, radius int) map[Point]bool {
	out := make(map[Point]bool)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-ox, y-oy
			if dx*dx+dy*dy <= radius*radius {
				out[Point{X: x, Y: y}] = true
			}
		}
	}
	return out
}

func assertMatchesDisc(t *testing.T, got VisibleSet, want map[Point]bool) {
	t.Helper()
	if got.Len() != len(want) {
		t.Errorf("visible count = %d, want %d", got.Len(), len(want))
	}
	for p := range want {
		if !got.Has(p.X, p.Y) {
			t.Errorf("tile %v should be visible", p)
		}
	}
	got.Each(func(p Point) {
		if !want[p] {
			t.Errorf("tile %v should not be visible", p)
		}
	})
}

func TestOriginAlwaysVisible(t *testing.T) {
	m := openMap(20, 20)

	for _, radius := range []int{0, 1, 5, 30} {
		visible := ComputeGrid(m, 5, 5, radius)
		if !visible.Has(5, 5) {
			t.Errorf("radius %d: origin not visible", radius)
		}
	}

	if got := ComputeGrid(m, 5, 5, 0).Len(); got != 1 {
		t.Errorf("radius 0 should see only the origin, got %d tiles", got)
	}

	// Standing inside an opaque tile still sees the origin
	walled := m.setWall(5, 5)
	if !ComputeGrid(walled, 5, 5, 4).Has(5, 5) {
		t.Error("origin inside a wall should still be visible")
	}
}

func TestOriginOutOfBounds(t *testing.T) {
	visible := ComputeGrid(openMap(10, 10), -1, 4, 5)
	if visible.Len() != 0 {
		t.Errorf("out-of-bounds origin should see nothing, got %d tiles", visible.Len())
	}
}

func TestOpenGridMatchesLatticeCount(t *testing.T) {
	// 10x10 all floor, origin (5,5), radius 3: nothing occludes so the
	// result is exactly the lattice disc, 29 tiles.
	visible := ComputeGrid(openMap(10, 10), 5, 5, 3)

	want := disc(10, 10, 5, 5, 3)
	if len(want) != 29 {
		t.Fatalf("lattice disc has %d points, expected 29", len(want))
	}
	assertMatchesDisc(t, visible, want)
}

func TestOpenGridRadiusEight(t *testing.T) {
	visible := ComputeGrid(openMap(21, 21), 10, 10, 8)
	assertMatchesDisc(t, visible, disc(21, 21, 10, 10, 8))
}

func TestSymmetryInOpenSpace(t *testing.T) {
	m := openMap(21, 21)
	const radius = 8
	ax, ay := 10, 10

	fromA := ComputeGrid(m, ax, ay, radius)
	fromA.Each(func(b Point) {
		fromB := ComputeGrid(m, b.X, b.Y, radius)
		if !fromB.Has(ax, ay) {
			t.Errorf("%v is visible from A but A is not visible from %v", b, b)
		}
	})

	// And the other direction over every tile of the map
	for y := 0; y < 21; y++ {
		for x := 0; x < 21; x++ {
			if ComputeGrid(m, x, y, radius).Has(ax, ay) != fromA.Has(x, y) {
				t.Errorf("visibility between A and (%d,%d) is not reciprocal", x, y)
			}
		}
	}
}

func TestOctantSeams(t *testing.T) {
	m := openMap(21, 21)
	visible := ComputeGrid(m, 10, 10, 8)

	// Axis rays reach the full radius
	for d := 1; d <= 8; d++ {
		for _, p := range []Point{{10 + d, 10}, {10 - d, 10}, {10, 10 + d}, {10, 10 - d}} {
			if !visible.Has(p.X, p.Y) {
				t.Errorf("axis tile %v at distance %d not visible", p, d)
			}
		}
	}

	// Diagonal rays reach (5,5) offsets; 6²+6² exceeds 8²
	for d := 1; d <= 6; d++ {
		want := d*d*2 <= 64
		for _, p := range []Point{{10 + d, 10 + d}, {10 - d, 10 + d}, {10 + d, 10 - d}, {10 - d, 10 - d}} {
			if visible.Has(p.X, p.Y) != want {
				t.Errorf("diagonal tile %v visible = %v, want %v", p, visible.Has(p.X, p.Y), want)
			}
		}
	}
}

func TestDiagonalWallCastsShadow(t *testing.T) {
	m := openMap(21, 21).setWall(8, 8)
	visible := ComputeGrid(m, 10, 10, 8)

	if !visible.Has(8, 8) {
		t.Error("the diagonal wall itself should be visible")
	}
	for _, p := range []Point{{7, 7}, {6, 6}} {
		if visible.Has(p.X, p.Y) {
			t.Errorf("tile %v behind the diagonal wall should be hidden", p)
		}
	}
	// The mirrored diagonals stay lit
	if !visible.Has(13, 13) || !visible.Has(7, 13) || !visible.Has(13, 7) {
		t.Error("unobstructed diagonals should remain visible")
	}
}

func TestWallOccludesCollinearTarget(t *testing.T) {
	// Wall two tiles north of the origin, target four tiles north
	m := openMap(11, 11).setWall(5, 3)
	visible := ComputeGrid(m, 5, 5, 8)

	if !visible.Has(5, 3) {
		t.Error("the blocking wall should be visible")
	}
	if !visible.Has(5, 4) {
		t.Error("the tile in front of the wall should be visible")
	}
	if visible.Has(5, 1) || visible.Has(5, 2) {
		t.Error("tiles directly behind the wall should be hidden")
	}

	// Same in every cardinal direction
	cases := []struct {
		wall, target Point
	}{
		{Point{7, 5}, Point{9, 5}},
		{Point{5, 7}, Point{5, 9}},
		{Point{3, 5}, Point{1, 5}},
	}
	for _, tc := range cases {
		vis := ComputeGrid(openMap(11, 11).setWall(tc.wall.X, tc.wall.Y), 5, 5, 8)
		if vis.Has(tc.target.X, tc.target.Y) {
			t.Errorf("target %v behind wall %v should be hidden", tc.target, tc.wall)
		}
	}
}

func TestWallBesideAxisKeepsAxisLit(t *testing.T) {
	m := openMap(21, 21).setWall(11, 8)
	visible := ComputeGrid(m, 10, 10, 8)

	for y := 9; y >= 3; y-- {
		if !visible.Has(10, y) {
			t.Errorf("axis tile (10,%d) hidden by a wall that is off the axis", y)
		}
	}
}

func TestClosedRoom(t *testing.T) {
	m := newTestMap(
		"...........",
		".#####.....",
		".#...#.....",
		".#...#.....",
		".#...#.....",
		".#####.....",
		"...........",
	)
	visible := ComputeGrid(m, 3, 3, 8)

	// Interior 3x3 plus the 5x5 wall ring
	if visible.Len() != 25 {
		t.Errorf("visible count = %d, want 25", visible.Len())
	}
	for y := 1; y <= 5; y++ {
		for x := 1; x <= 5; x++ {
			if !visible.Has(x, y) {
				t.Errorf("room tile (%d,%d) should be visible", x, y)
			}
		}
	}
	if visible.Has(0, 0) || visible.Has(7, 3) || visible.Has(3, 6) {
		t.Error("tiles outside the closed room should be hidden")
	}
}

func TestBoundaryClamp(t *testing.T) {
	const w, h = 10, 10
	m := openMap(w, h)

	origins := []Point{{0, 0}, {9, 9}, {0, 9}, {9, 0}, {0, 5}, {5, 0}, {9, 4}, {4, 9}}
	for _, o := range origins {
		visible := ComputeGrid(m, o.X, o.Y, 12)
		visible.Each(func(p Point) {
			if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
				t.Errorf("origin %v: out-of-bounds tile %v reported", o, p)
			}
		})
		// Open map: the edges of the grid do not shadow anything inside it
		assertMatchesDisc(t, visible, disc(w, h, o.X, o.Y, 12))
	}
}

func TestPredicateNeverQueriedOutOfBounds(t *testing.T) {
	bounds := Bounds{Width: 6, Height: 6}
	transparent := func(x, y int) bool {
		if x < 0 || x >= 6 || y < 0 || y >= 6 {
			t.Fatalf("predicate queried out of bounds at (%d,%d)", x, y)
		}
		return true
	}

	visible := Compute(transparent, bounds, 1, 1, 10)
	if visible.Len() != 36 {
		t.Errorf("visible count = %d, want 36", visible.Len())
	}
}

func TestComputeIsPure(t *testing.T) {
	m := newTestMap(
		"..........",
		"..#.......",
		"......#...",
		"...#......",
		"..........",
		"....#.....",
		"..........",
	)

	first := ComputeGrid(m, 4, 3, 6).Points()
	second := ComputeGrid(m, 4, 3, 6).Points()

	if len(first) != len(second) {
		t.Fatalf("repeated calls differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("point %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestPointsSortedRowMajor(t *testing.T) {
	points := ComputeGrid(openMap(10, 10), 5, 5, 2).Points()

	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if a.Y > b.Y || (a.Y == b.Y && a.X >= b.X) {
			t.Fatalf("points not sorted at %d: %v then %v", i, a, b)
		}
	}
}
