package test

import (
	"fmt"

	"github.com/lawnchairsociety/opendelve/internal/delve"
	"github.com/lawnchairsociety/opendelve/internal/testclient"
)

type cell struct{ x, y int }

// exploreToStairs walks toward the stairs down once they have been seen,
// and toward the nearest unexplored edge before that. It returns the number
// of moves taken to reach depth 2.
func exploreToStairs(client *testclient.TestClient, maxSteps int) (int, error) {
	snap := client.Welcome.Snapshot
	for steps := 0; steps < maxSteps; {
		path := nextPath(snap.Explored, cell{snap.Player.X, snap.Player.Y})
		if len(path) == 0 {
			return steps, fmt.Errorf("nothing left to explore after %d steps", steps)
		}
		for _, d := range path {
			reply, err := client.Move(d)
			if err != nil {
				return steps, err
			}
			steps++
			if reply.Snapshot == nil {
				return steps, fmt.Errorf("move returned no snapshot: %s", reply.Error)
			}
			snap = reply.Snapshot
			if reply.Outcome == delve.OutcomeDescended.String() {
				if snap.Depth != 2 {
					return steps, fmt.Errorf("descended to depth %d", snap.Depth)
				}
				return steps, nil
			}
			if reply.Outcome == delve.OutcomeBlocked.String() {
				break
			}
		}
	}
	return maxSteps, fmt.Errorf("stairs not reached in %d steps", maxSteps)
}

// nextPath runs a BFS over explored open tiles to the stairs down if known,
// otherwise to the closest tile next to unexplored space.
func nextPath(rows []string, from cell) []delve.Direction {
	at := func(c cell) byte {
		if c.y < 0 || c.y >= len(rows) || c.x < 0 || c.x >= len(rows[c.y]) {
			return ' '
		}
		return rows[c.y][c.x]
	}
	open := func(c cell) bool {
		g := at(c)
		return g == '.' || g == '<' || g == '>'
	}
	frontier := func(c cell) bool {
		for _, d := range delve.AllDirections() {
			dx, dy := d.Delta()
			if at(cell{c.x + dx, c.y + dy}) == ' ' {
				return true
			}
		}
		return false
	}

	type step struct {
		prev cell
		dir  delve.Direction
	}
	came := map[cell]step{from: {}}
	queue := []cell{from}
	var fallback *cell
	var target *cell

	for len(queue) > 0 && target == nil {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range delve.AllDirections() {
			dx, dy := d.Delta()
			next := cell{cur.x + dx, cur.y + dy}
			if _, seen := came[next]; seen || !open(next) {
				continue
			}
			came[next] = step{prev: cur, dir: d}
			queue = append(queue, next)
			if at(next) == '>' {
				n := next
				target = &n
				break
			}
			if fallback == nil && frontier(next) {
				n := next
				fallback = &n
			}
		}
	}

	if target == nil {
		target = fallback
	}
	if target == nil {
		return nil
	}

	var path []delve.Direction
	for c := *target; c != from; c = came[c].prev {
		path = append([]delve.Direction{came[c].dir}, path...)
	}
	return path
}
