package delve

// Position is a JSON-friendly grid coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is a read-only copy of what the explorer knows
type Snapshot struct {
	Seed     int64      `json:"seed"`
	Depth    int        `json:"depth"`
	Turn     int        `json:"turn"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Player   Position   `json:"player"`
	Visible  []Position `json:"visible"`
	Explored []string   `json:"explored"` // Glyph rows, unexplored tiles are spaces
	Message  string     `json:"message,omitempty"`
}

// Snapshot captures the current view. Visible tiles are sorted row-major.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.visible.Points()
	visible := make([]Position, len(points))
	for i, p := range points {
		visible[i] = Position{X: p.X, Y: p.Y}
	}

	snap := Snapshot{
		Seed:     s.seed,
		Depth:    s.depth,
		Turn:     s.turn,
		Width:    s.level.Grid.Width,
		Height:   s.level.Grid.Height,
		Player:   Position{X: s.player.X, Y: s.player.Y},
		Visible:  visible,
		Explored: s.level.Grid.ExploredRows(),
	}
	if n := len(s.messages); n > 0 {
		snap.Message = s.messages[n-1]
	}
	return snap
}

// Render draws the explored map with the explorer as '@'
func (s *Session) Render() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return overlayPlayer(s.level.Grid.ExploredRows(), s.player.X, s.player.Y)
}

func overlayPlayer(rows []string, px, py int) []string {
	out := make([]string, len(rows))
	for y, row := range rows {
		line := []byte(row)
		if y == py && px >= 0 && px < len(line) {
			line[px] = '@'
		}
		out[y] = string(line)
	}
	return out
}
