package dungeon

import (
	"errors"
	"fmt"
)

// ErrMalformedRows is returned when ParseRows receives ragged or unknown input
var ErrMalformedRows = errors.New("dungeon: malformed grid rows")

// Grid is a fixed-size map of tiles plus the explored overlay.
// Cells are stored row-major; index = y*Width + x.
type Grid struct {
	Width, Height int
	tiles         []TileType
	explored      []bool
}

// NewGrid creates a grid filled entirely with walls
func NewGrid(width, height int) *Grid {
	g := &Grid{
		Width:    width,
		Height:   height,
		tiles:    make([]TileType, width*height),
		explored: make([]bool, width*height),
	}
	for i := range g.tiles {
		g.tiles[i] = TileWall
	}
	return g
}

// ParseRows builds a grid from glyph rows as produced by Rows.
func ParseRows(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedRows)
	}
	width := len(rows[0])
	g := NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has length %d, want %d", ErrMalformedRows, y, len(row), width)
		}
		for x := 0; x < width; x++ {
			t, ok := tileFromGlyph(row[x])
			if !ok {
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d,%d)", ErrMalformedRows, row[x], x, y)
			}
			g.tiles[y*width+x] = t
		}
	}
	return g, nil
}

// Size returns the grid dimensions
func (g *Grid) Size() (int, int) {
	return g.Width, g.Height
}

// InBounds checks if coordinates are within the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the tile at (x, y). Out-of-bounds reads as wall.
func (g *Grid) At(x, y int) TileType {
	if !g.InBounds(x, y) {
		return TileWall
	}
	return g.tiles[y*g.Width+x]
}

// Set changes the tile at (x, y); out-of-bounds writes are ignored
func (g *Grid) Set(x, y int, t TileType) {
	if g.InBounds(x, y) {
		g.tiles[y*g.Width+x] = t
	}
}

// IsWalkable reports whether a creature can stand on (x, y)
func (g *Grid) IsWalkable(x, y int) bool {
	return g.InBounds(x, y) && g.tiles[y*g.Width+x].Passable()
}

// IsTransparent reports whether light passes through (x, y).
// Walkability and transparency coincide for every tile type.
func (g *Grid) IsTransparent(x, y int) bool {
	return g.InBounds(x, y) && g.tiles[y*g.Width+x].Passable()
}

// MarkExplored records that (x, y) has been seen at least once
func (g *Grid) MarkExplored(x, y int) {
	if g.InBounds(x, y) {
		g.explored[y*g.Width+x] = true
	}
}

// IsExplored reports whether (x, y) has ever been seen
func (g *Grid) IsExplored(x, y int) bool {
	return g.InBounds(x, y) && g.explored[y*g.Width+x]
}

// ExploredCount returns how many tiles have been seen
func (g *Grid) ExploredCount() int {
	count := 0
	for _, e := range g.explored {
		if e {
			count++
		}
	}
	return count
}

// ResetExplored clears the explored overlay
func (g *Grid) ResetExplored() {
	for i := range g.explored {
		g.explored[i] = false
	}
}

// Count returns the number of tiles of the given type
func (g *Grid) Count(t TileType) int {
	count := 0
	for _, tile := range g.tiles {
		if tile == t {
			count++
		}
	}
	return count
}

// Find returns the first tile of the given type in row-major order
func (g *Grid) Find(t TileType) (Point, bool) {
	for i, tile := range g.tiles {
		if tile == t {
			return Point{X: i % g.Width, Y: i / g.Width}, true
		}
	}
	return Point{}, false
}

// Rows renders the grid as one glyph string per row
func (g *Grid) Rows() []string {
	rows := make([]string, g.Height)
	buf := make([]byte, g.Width)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			buf[x] = g.tiles[y*g.Width+x].Glyph()
		}
		rows[y] = string(buf)
	}
	return rows
}

// ExploredRows renders only explored tiles; unseen tiles are blank
func (g *Grid) ExploredRows() []string {
	rows := make([]string, g.Height)
	buf := make([]byte, g.Width)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			i := y*g.Width + x
			if g.explored[i] {
				buf[x] = g.tiles[i].Glyph()
			} else {
				buf[x] = ' '
			}
		}
		rows[y] = string(buf)
	}
	return rows
}

// carveRoom turns the room's interior into floor
func (g *Grid) carveRoom(r Room) {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			g.Set(x, y, TileFloor)
		}
	}
}

// carveH carves a horizontal run between x1 and x2 inclusive
func (g *Grid) carveH(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		g.Set(x, y, TileFloor)
	}
}

// carveV carves a vertical run between y1 and y2 inclusive
func (g *Grid) carveV(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		g.Set(x, y, TileFloor)
	}
}

// reachable flood-fills walkable tiles from (sx, sy) using 4-connectivity
func (g *Grid) reachable(sx, sy int) []bool {
	seen := make([]bool, len(g.tiles))
	if !g.IsWalkable(sx, sy) {
		return seen
	}
	queue := []Point{{X: sx, Y: sy}}
	seen[sy*g.Width+sx] = true
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range [4][2]int{{0, -1}, {0, 1}, {1, 0}, {-1, 0}} {
			nx, ny := p.X+d[0], p.Y+d[1]
			if !g.IsWalkable(nx, ny) || seen[ny*g.Width+nx] {
				continue
			}
			seen[ny*g.Width+nx] = true
			queue = append(queue, Point{X: nx, Y: ny})
		}
	}
	return seen
}
