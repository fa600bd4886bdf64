package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
	"github.com/lawnchairsociety/opendelve/internal/fov"
)

func testLevel(t *testing.T) *dungeon.Level {
	t.Helper()
	level, err := dungeon.Generate(50, 30, 12)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return level
}

func TestRenderMap(t *testing.T) {
	level := testLevel(t)
	rows := renderMap(level, nil)

	if len(rows) != 30 || len(rows[0]) != 50 {
		t.Fatalf("map is %dx%d, want 50x30", len(rows[0]), len(rows))
	}
	spawn := level.SpawnPoint()
	if rows[spawn.Y][spawn.X] != '@' {
		t.Errorf("spawn drawn as %q", rows[spawn.Y][spawn.X])
	}
	if !strings.Contains(strings.Join(rows, ""), ">") {
		t.Error("map has no stairs down")
	}
}

func TestRenderMapWithFOV(t *testing.T) {
	level := testLevel(t)
	spawn := level.SpawnPoint()
	visible := fov.ComputeGrid(level.Grid, spawn.X, spawn.Y, 4)

	rows := renderMap(level, &visible)
	drawn := 0
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			if row[x] == ' ' {
				continue
			}
			drawn++
			if !visible.Has(x, y) {
				t.Errorf("tile (%d,%d) drawn but not visible", x, y)
			}
		}
	}
	if drawn != visible.Len() {
		t.Errorf("drew %d tiles, want %d", drawn, visible.Len())
	}
}

func TestWriteLevelYAML(t *testing.T) {
	level := testLevel(t)
	path := filepath.Join(t.TempDir(), "out", "level.yaml")

	if err := writeLevelYAML(level, 11, 1, path); err != nil {
		t.Fatalf("writeLevelYAML failed: %v", err)
	}

	got, err := readLevelYAML(path)
	if err != nil {
		t.Fatalf("readLevelYAML failed: %v", err)
	}
	if got.Seed != 11 || got.Depth != 1 || got.LevelSeed != 12 {
		t.Errorf("header = seed %d depth %d level seed %d", got.Seed, got.Depth, got.LevelSeed)
	}
	if len(got.Rooms) != len(level.Rooms) {
		t.Errorf("rooms = %d, want %d", len(got.Rooms), len(level.Rooms))
	}
	if got.StairsDown != toPointYAML(level.StairsDown) {
		t.Errorf("stairs down = %+v, want %+v", got.StairsDown, level.StairsDown)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	inline := fmt.Sprintf("stairs_down: {x: %d, y: %d}", level.StairsDown.X, level.StairsDown.Y)
	if !strings.Contains(string(raw), inline) {
		t.Errorf("expected %q in the YAML dump:\n%s", inline, raw)
	}

	grid, err := dungeon.ParseRows(got.Tiles)
	if err != nil {
		t.Fatalf("tiles do not parse: %v", err)
	}
	if grid.Count(dungeon.TileStairsUp) != 1 {
		t.Error("round-tripped tiles lost the stairs up")
	}
}
