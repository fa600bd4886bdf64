package delve

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDirection = errors.New("unknown direction")

// Direction represents a cardinal direction on the grid
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Delta returns the (dx, dy) step; y grows downward
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// AllDirections returns all four cardinal directions
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}

var directionAliases = map[string]Direction{
	"n": North, "north": North, "up": North, "k": North,
	"e": East, "east": East, "right": East, "l": East,
	"s": South, "south": South, "down": South, "j": South,
	"w": West, "west": West, "left": West, "h": West,
}

// ParseDirection accepts compass names, their initials, arrow names and
// the vi keys.
func ParseDirection(s string) (Direction, error) {
	d, ok := directionAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}
