// Package delve runs one explorer's descent through a stack of generated
// levels: movement, stairs and the field of view that reveals the map.
package delve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
	"github.com/lawnchairsociety/opendelve/internal/fov"
	"github.com/lawnchairsociety/opendelve/internal/logger"
)

// DefaultRadius is the sight radius used when SessionConfig leaves it unset
const DefaultRadius = 8

// ErrNegativeRadius is returned for a sight radius below zero
var ErrNegativeRadius = errors.New("sight radius is negative")

// maxMessages bounds the message log
const maxMessages = 50

// Outcome describes what a Move did
type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeBlocked
	OutcomeDescended
	OutcomeAscended
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeDescended:
		return "descended"
	case OutcomeAscended:
		return "ascended"
	default:
		return "unknown"
	}
}

// LevelRecorder is notified once for every level a session generates
type LevelRecorder interface {
	RecordLevel(depth int, level *dungeon.Level) error
}

// SessionConfig configures a new Session
type SessionConfig struct {
	Seed     int64
	Dungeon  *dungeon.Config // nil uses dungeon.DefaultConfig()
	Radius   *int            // nil uses DefaultRadius; 0 sees only the explorer's tile
	Recorder LevelRecorder   // optional
}

// Session is one explorer's state. Levels are cached per depth so that
// returning to a depth keeps its explored overlay.
type Session struct {
	seed     int64
	config   *dungeon.Config
	radius   int
	recorder LevelRecorder

	levels   map[int]*dungeon.Level
	depth    int
	deepest  int
	level    *dungeon.Level
	player   dungeon.Point
	visible  fov.VisibleSet
	turn     int
	messages []string

	mu sync.RWMutex
}

// NewSession generates depth 1 and places the explorer at its spawn point
func NewSession(cfg SessionConfig) (*Session, error) {
	dcfg := cfg.Dungeon
	if dcfg == nil {
		dcfg = dungeon.DefaultConfig()
	}
	if err := dcfg.Validate(); err != nil {
		return nil, err
	}
	radius := DefaultRadius
	if cfg.Radius != nil {
		radius = *cfg.Radius
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeRadius, radius)
	}

	s := &Session{
		seed:     cfg.Seed,
		config:   dcfg,
		radius:   radius,
		recorder: cfg.Recorder,
		levels:   make(map[int]*dungeon.Level),
	}
	if err := s.enter(1); err != nil {
		return nil, err
	}
	s.addMessage("You enter the dungeon.")
	return s, nil
}

// LevelSeed returns the seed used to generate the given depth
func LevelSeed(seed int64, depth int) int64 {
	return seed + int64(depth)
}

// Move attempts one step. Walking into a wall or off the grid is
// OutcomeBlocked and changes nothing. Stepping onto the stairs down
// generates (or revisits) the next depth; stepping onto the stairs up
// returns to the previous one when there is a previous one.
func (s *Session) Move(dir Direction) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		return OutcomeBlocked, fmt.Errorf("%w: %d", ErrUnknownDirection, int(dir))
	}

	nx, ny := s.player.X+dx, s.player.Y+dy
	grid := s.level.Grid
	if !grid.IsWalkable(nx, ny) {
		return OutcomeBlocked, nil
	}

	outcome := OutcomeMoved
	switch {
	case grid.At(nx, ny) == dungeon.TileStairsDown:
		if err := s.enter(s.depth + 1); err != nil {
			return OutcomeBlocked, err
		}
		outcome = OutcomeDescended
		s.addMessage(fmt.Sprintf("You descend to level %d.", s.depth))
		logger.Audit("Descended", "seed", s.seed, "depth", s.depth)
	case grid.At(nx, ny) == dungeon.TileStairsUp && s.depth > 1:
		if err := s.enter(s.depth - 1); err != nil {
			return OutcomeBlocked, err
		}
		outcome = OutcomeAscended
		s.addMessage(fmt.Sprintf("You ascend to level %d.", s.depth))
		logger.Audit("Ascended", "seed", s.seed, "depth", s.depth)
	default:
		s.player = dungeon.Point{X: nx, Y: ny}
		s.refreshView()
	}

	s.turn++
	return outcome, nil
}

// Depth returns the current depth, starting at 1
func (s *Session) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

// Deepest returns the deepest depth reached so far
func (s *Session) Deepest() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deepest
}

// Player returns the explorer's position
func (s *Session) Player() dungeon.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// Level returns the current level. Callers must not modify it.
func (s *Session) Level() *dungeon.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// Visible returns the tiles lit from the explorer's current position
func (s *Session) Visible() fov.VisibleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// Messages returns the message log, oldest first
func (s *Session) Messages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.messages...)
}

// enter switches to depth, placing the explorer at the spawn point. The
// session is unchanged when the level cannot be generated.
func (s *Session) enter(depth int) error {
	level, err := s.levelFor(depth)
	if err != nil {
		return err
	}

	s.depth = depth
	if depth > s.deepest {
		s.deepest = depth
	}
	s.level = level
	s.player = level.SpawnPoint()
	s.refreshView()
	return nil
}

func (s *Session) levelFor(depth int) (*dungeon.Level, error) {
	if level, ok := s.levels[depth]; ok {
		return level, nil
	}

	levelSeed := LevelSeed(s.seed, depth)
	level, err := dungeon.NewGenerator(s.config, levelSeed).Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate depth %d: %w", depth, err)
	}
	s.levels[depth] = level

	logger.Info("Level generated",
		"seed", s.seed, "depth", depth, "level_seed", levelSeed, "rooms", len(level.Rooms))

	if s.recorder != nil {
		if err := s.recorder.RecordLevel(depth, level); err != nil {
			// Recording is best effort; the level is already playable
			logger.Warning("Failed to record level", "depth", depth, "error", err)
		}
	}
	return level, nil
}

// refreshView recomputes the field of view and folds it into the explored
// overlay.
func (s *Session) refreshView() {
	grid := s.level.Grid
	s.visible = fov.ComputeGrid(grid, s.player.X, s.player.Y, s.radius)
	s.visible.Each(func(p fov.Point) {
		grid.MarkExplored(p.X, p.Y)
	})
}

func (s *Session) addMessage(msg string) {
	s.messages = append(s.messages, msg)
	if len(s.messages) > maxMessages {
		s.messages = s.messages[len(s.messages)-maxMessages:]
	}
}
