package dungeon

import "fmt"

// TileType represents the contents of a single grid cell
type TileType int

const (
	TileFloor      TileType = iota // Open floor
	TileWall                       // Solid rock, blocks movement and sight
	TileStairsDown                 // Stairs leading to the next depth
	TileStairsUp                   // Stairs leading back to the previous depth
)

// String returns the string representation of a TileType
func (t TileType) String() string {
	switch t {
	case TileFloor:
		return "floor"
	case TileWall:
		return "wall"
	case TileStairsDown:
		return "stairs_down"
	case TileStairsUp:
		return "stairs_up"
	default:
		return "unknown"
	}
}

// Glyph returns the map character used when rendering the tile
func (t TileType) Glyph() byte {
	switch t {
	case TileFloor:
		return '.'
	case TileStairsDown:
		return '>'
	case TileStairsUp:
		return '<'
	default:
		return '#'
	}
}

// Passable reports whether the tile can be walked on and seen through.
func (t TileType) Passable() bool {
	return t == TileFloor || t == TileStairsDown || t == TileStairsUp
}

// ParseTileType converts a name produced by String back to a TileType
func ParseTileType(s string) (TileType, error) {
	switch s {
	case "floor":
		return TileFloor, nil
	case "wall":
		return TileWall, nil
	case "stairs_down":
		return TileStairsDown, nil
	case "stairs_up":
		return TileStairsUp, nil
	}
	return TileWall, fmt.Errorf("unknown tile type %q", s)
}

// tileFromGlyph is the inverse of Glyph
func tileFromGlyph(c byte) (TileType, bool) {
	switch c {
	case '.':
		return TileFloor, true
	case '#':
		return TileWall, true
	case '>':
		return TileStairsDown, true
	case '<':
		return TileStairsUp, true
	}
	return TileWall, false
}
