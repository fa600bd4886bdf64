package dungeon

// Point is a grid coordinate
type Point struct {
	X, Y int
}

// Room is an axis-aligned rectangle of carved floor
type Room struct {
	X, Y          int
	Width, Height int
}

// Overlaps reports whether two rooms intersect. Rooms that only share an
// edge do not overlap.
func (r Room) Overlaps(other Room) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}

// Center returns the room's center tile, rounded toward the top-left
func (r Room) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether (x, y) lies inside the room
func (r Room) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Area returns the number of tiles covered by the room
func (r Room) Area() int {
	return r.Width * r.Height
}
