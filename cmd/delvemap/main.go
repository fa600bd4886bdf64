package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/opendelve/internal/archive"
	"github.com/lawnchairsociety/opendelve/internal/delve"
	"github.com/lawnchairsociety/opendelve/internal/dungeon"
	"github.com/lawnchairsociety/opendelve/internal/fov"
)

func main() {
	width := flag.Int("width", 50, "Grid width")
	height := flag.Int("height", 30, "Grid height")
	seed := flag.Int64("seed", 1, "Dungeon seed")
	depth := flag.Int("depth", 1, "Depth to generate (level seed is seed+depth)")
	radius := flag.Int("radius", delve.DefaultRadius, "Sight radius for -fov")
	showFOV := flag.Bool("fov", false, "Only draw what is visible from the spawn point")
	yamlFile := flag.String("yaml", "", "Write the level as YAML to this file")
	archivePath := flag.String("archive", "", "Save the level to this SQLite archive")
	flag.Parse()

	if *depth < 1 {
		fmt.Fprintln(os.Stderr, "Error: depth must be at least 1")
		os.Exit(1)
	}

	cfg := dungeon.DefaultConfig()
	cfg.Width = *width
	cfg.Height = *height

	level, err := dungeon.NewGenerator(cfg, delve.LevelSeed(*seed, *depth)).Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating level: %v\n", err)
		os.Exit(1)
	}

	spawn := level.SpawnPoint()
	var visible *fov.VisibleSet
	if *showFOV {
		v := fov.ComputeGrid(level.Grid, spawn.X, spawn.Y, *radius)
		visible = &v
	}

	fmt.Printf("Seed %d, depth %d (level seed %d), %dx%d, %d rooms\n",
		*seed, *depth, level.Seed, level.Grid.Width, level.Grid.Height, len(level.Rooms))
	fmt.Println(strings.Join(renderMap(level, visible), "\n"))
	fmt.Println()
	fmt.Println("Legend: # wall  . floor  < stairs up  > stairs down  @ spawn")
	if visible != nil {
		fmt.Printf("Visible from spawn (radius %d): %d tiles\n", *radius, visible.Len())
	}

	if *yamlFile != "" {
		if err := writeLevelYAML(level, *seed, *depth, *yamlFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing YAML: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Level written to %s\n", *yamlFile)
	}

	if *archivePath != "" {
		a, err := archive.Open(*archivePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		id, err := a.SaveLevel(context.Background(), archive.NewLevelRecord(*seed, *depth, level))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving level: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Level archived as #%d in %s\n", id, *archivePath)
	}
}

// renderMap draws the level with the spawn point as '@'. With a visible
// set, tiles outside it are blank.
func renderMap(level *dungeon.Level, visible *fov.VisibleSet) []string {
	rows := level.Grid.Rows()
	spawn := level.SpawnPoint()

	for y, row := range rows {
		line := []byte(row)
		if visible != nil {
			for x := range line {
				if !visible.Has(x, y) {
					line[x] = ' '
				}
			}
		}
		if y == spawn.Y {
			line[spawn.X] = '@'
		}
		rows[y] = string(line)
	}
	return rows
}
