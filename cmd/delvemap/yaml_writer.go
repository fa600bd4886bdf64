package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
)

// LevelYAML is the on-disk form of a generated level
type LevelYAML struct {
	Seed       int64      `yaml:"seed"`
	Depth      int        `yaml:"depth"`
	LevelSeed  int64      `yaml:"level_seed"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	StairsUp   PointYAML  `yaml:"stairs_up,flow"`
	StairsDown PointYAML  `yaml:"stairs_down,flow"`
	Spawn      PointYAML  `yaml:"spawn,flow"`
	Rooms      []RoomYAML `yaml:"rooms"`
	Tiles      []string   `yaml:"tiles"`
}

// PointYAML is a tile coordinate; LevelYAML writes it inline as {x: 1, y: 2}
type PointYAML struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// RoomYAML is one room rectangle
type RoomYAML struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func toPointYAML(p dungeon.Point) PointYAML {
	return PointYAML{X: p.X, Y: p.Y}
}

// writeLevelYAML writes the level with a short header comment
func writeLevelYAML(level *dungeon.Level, seed int64, depth int, path string) error {
	out := &LevelYAML{
		Seed:       seed,
		Depth:      depth,
		LevelSeed:  level.Seed,
		Width:      level.Grid.Width,
		Height:     level.Grid.Height,
		StairsUp:   toPointYAML(level.StairsUp),
		StairsDown: toPointYAML(level.StairsDown),
		Spawn:      toPointYAML(level.SpawnPoint()),
		Rooms:      make([]RoomYAML, 0, len(level.Rooms)),
		Tiles:      level.Grid.Rows(),
	}
	for _, r := range level.Rooms {
		out.Rooms = append(out.Rooms, RoomYAML{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Generated level: %dx%d grid\n", out.Width, out.Height)
	fmt.Fprintf(f, "# Rooms: %d\n\n", len(out.Rooms))

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// readLevelYAML loads a file written by writeLevelYAML
func readLevelYAML(path string) (*LevelYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var level LevelYAML
	if err := yaml.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &level, nil
}
