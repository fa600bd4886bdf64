package dungeon

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/opendelve/internal/logger"
)

var (
	ErrInvalidConfig = errors.New("dungeon: invalid generator config")
	ErrTooFewRooms   = errors.New("dungeon: too few rooms placed")
)

// minLevelRooms is the smallest room count that yields distinct stairs
const minLevelRooms = 2

// Config contains parameters for level generation
type Config struct {
	Width             int `yaml:"width"`
	Height            int `yaml:"height"`
	MinRooms          int `yaml:"min_rooms"`          // Lower bound of the target room count
	MaxRooms          int `yaml:"max_rooms"`          // Upper bound of the target room count
	MinRoomSize       int `yaml:"min_room_size"`      // Smallest room edge
	MaxRoomSize       int `yaml:"max_room_size"`      // Largest room edge
	PlacementAttempts int `yaml:"placement_attempts"` // Candidate rooms sampled per level before giving up
	MaxRetries        int `yaml:"max_retries"`        // Whole-level regenerations when too few rooms fit
}

// DefaultConfig returns the classic 50x30 layout parameters
func DefaultConfig() *Config {
	return &Config{
		Width:             50,
		Height:            30,
		MinRooms:          8,
		MaxRooms:          15,
		MinRoomSize:       5,
		MaxRoomSize:       10,
		PlacementAttempts: 100,
		MaxRetries:        10,
	}
}

// Validate checks that a minimum-size room plus its margin fits the grid
func (c *Config) Validate() error {
	switch {
	case c.MinRoomSize < 3:
		return fmt.Errorf("%w: min room size %d is below 3", ErrInvalidConfig, c.MinRoomSize)
	case c.MaxRoomSize < c.MinRoomSize:
		return fmt.Errorf("%w: max room size %d is below min %d", ErrInvalidConfig, c.MaxRoomSize, c.MinRoomSize)
	case c.MinRooms < minLevelRooms:
		return fmt.Errorf("%w: min rooms %d is below %d", ErrInvalidConfig, c.MinRooms, minLevelRooms)
	case c.MaxRooms < c.MinRooms:
		return fmt.Errorf("%w: max rooms %d is below min %d", ErrInvalidConfig, c.MaxRooms, c.MinRooms)
	case c.Width < c.MinRoomSize+2 || c.Height < c.MinRoomSize+2:
		return fmt.Errorf("%w: %dx%d grid cannot hold a %d-tile room with margin",
			ErrInvalidConfig, c.Width, c.Height, c.MinRoomSize)
	case c.PlacementAttempts < c.MinRooms:
		return fmt.Errorf("%w: placement attempts %d is below min rooms %d", ErrInvalidConfig, c.PlacementAttempts, c.MinRooms)
	case c.MaxRetries < 1:
		return fmt.Errorf("%w: max retries must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Level is the output of one generation run
type Level struct {
	Seed       int64
	Grid       *Grid
	Rooms      []Room // In acceptance order
	StairsUp   Point
	StairsDown Point
}

// SpawnPoint returns the player's starting tile inside the first room
func (l *Level) SpawnPoint() Point {
	first := l.Rooms[0]
	return Point{X: first.X + 2, Y: first.Y + 2}
}

// Connected reports whether every room center is reachable from the first
func (l *Level) Connected() bool {
	if len(l.Rooms) == 0 {
		return false
	}
	cx, cy := l.Rooms[0].Center()
	seen := l.Grid.reachable(cx, cy)
	for _, r := range l.Rooms {
		x, y := r.Center()
		if !seen[y*l.Grid.Width+x] {
			return false
		}
	}
	return true
}

// Generator handles level generation from a seeded source
type Generator struct {
	config *Config
	seed   int64
	rng    *rand.Rand
}

// NewGenerator creates a new level generator. The same config and seed
// always produce the same level.
func NewGenerator(config *Config, seed int64) *Generator {
	return &Generator{
		config: config,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate is a convenience wrapper using default room parameters
func Generate(width, height int, seed int64) (*Level, error) {
	cfg := DefaultConfig()
	cfg.Width = width
	cfg.Height = height
	return NewGenerator(cfg, seed).Generate()
}

// Generate creates a level layout
func (g *Generator) Generate() (*Level, error) {
	if err := g.config.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < g.config.MaxRetries; attempt++ {
		grid := NewGrid(g.config.Width, g.config.Height)
		rooms := g.placeRooms(grid)
		if len(rooms) < minLevelRooms {
			logger.Debug("Level rejected, too few rooms",
				"seed", g.seed, "attempt", attempt, "rooms", len(rooms))
			continue
		}

		g.connectRooms(grid, rooms)

		level := &Level{
			Seed:  g.seed,
			Grid:  grid,
			Rooms: rooms,
		}
		level.placeStairs()
		return level, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", g.config.MaxRetries, ErrTooFewRooms)
}

// placeRooms samples candidate rooms until the target count is reached or
// the attempt budget runs out. Overlapping candidates are discarded.
func (g *Generator) placeRooms(grid *Grid) []Room {
	target := g.between(g.config.MinRooms, g.config.MaxRooms)
	maxW := min(g.config.MaxRoomSize, grid.Width-2)
	maxH := min(g.config.MaxRoomSize, grid.Height-2)

	rooms := make([]Room, 0, target)
	for i := 0; i < g.config.PlacementAttempts && len(rooms) < target; i++ {
		w := g.between(g.config.MinRoomSize, maxW)
		h := g.between(g.config.MinRoomSize, maxH)
		candidate := Room{
			X:      g.between(1, grid.Width-w-1),
			Y:      g.between(1, grid.Height-h-1),
			Width:  w,
			Height: h,
		}
		if overlapsAny(candidate, rooms) {
			continue
		}
		grid.carveRoom(candidate)
		rooms = append(rooms, candidate)
	}
	return rooms
}

// connectRooms joins each consecutive pair of rooms with an L corridor
func (g *Generator) connectRooms(grid *Grid, rooms []Room) {
	for i := 0; i+1 < len(rooms); i++ {
		x1, y1 := rooms[i].Center()
		x2, y2 := rooms[i+1].Center()
		if g.rng.Intn(2) == 0 {
			grid.carveH(x1, x2, y1)
			grid.carveV(y1, y2, x2)
		} else {
			grid.carveV(y1, y2, x1)
			grid.carveH(x1, x2, y2)
		}
	}
}

// placeStairs puts the way up in the first room and the way down in the last
func (l *Level) placeStairs() {
	first, last := l.Rooms[0], l.Rooms[len(l.Rooms)-1]
	l.StairsUp = Point{X: first.X + 1, Y: first.Y + 1}
	l.StairsDown = Point{X: last.X + 1, Y: last.Y + 1}
	l.Grid.Set(l.StairsUp.X, l.StairsUp.Y, TileStairsUp)
	l.Grid.Set(l.StairsDown.X, l.StairsDown.Y, TileStairsDown)
}

// between returns a random int in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.Intn(hi-lo+1)
}

func overlapsAny(candidate Room, rooms []Room) bool {
	for _, r := range rooms {
		if candidate.Overlaps(r) {
			return true
		}
	}
	return false
}
