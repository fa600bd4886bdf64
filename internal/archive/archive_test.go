package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
)

// getTestArchives returns a SQLite archive and, when DELVE_TEST_POSTGRES is
// set, a PostgreSQL one.
func getTestArchives(t *testing.T) map[string]*Archive {
	t.Helper()
	archives := make(map[string]*Archive)

	a, err := Open(filepath.Join(t.TempDir(), "levels.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite archive: %v", err)
	}
	archives["sqlite"] = a

	if cfg := getPostgresTestConfig(); cfg != nil {
		pg, err := OpenWithConfig(*cfg)
		if err != nil {
			t.Logf("PostgreSQL not available: %v", err)
		} else {
			pg.db.Exec("DELETE FROM levels")
			archives["postgres"] = pg
		}
	}

	t.Cleanup(func() {
		for name, a := range archives {
			if name == "postgres" {
				a.db.Exec("DELETE FROM levels")
			}
			a.Close()
		}
	})
	return archives
}

func getPostgresTestConfig() *Config {
	if os.Getenv("DELVE_TEST_POSTGRES") == "" {
		return nil
	}

	pg := DefaultPostgresConfig()
	if host := os.Getenv("DELVE_TEST_POSTGRES_HOST"); host != "" {
		pg.Host = host
	}
	if portStr := os.Getenv("DELVE_TEST_POSTGRES_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &pg.Port)
	}
	pg.User = envOr("DELVE_TEST_POSTGRES_USER", "delve")
	pg.Password = envOr("DELVE_TEST_POSTGRES_PASSWORD", "delve")
	pg.Database = envOr("DELVE_TEST_POSTGRES_DATABASE", "delve_test")

	return &Config{Driver: "postgres", Postgres: pg}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func generateLevel(t *testing.T, seed int64) *dungeon.Level {
	t.Helper()
	level, err := dungeon.Generate(50, 30, seed)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return level
}

func TestSaveAndGetLevel(t *testing.T) {
	ctx := context.Background()
	level := generateLevel(t, 43)

	for name, a := range getTestArchives(t) {
		t.Run(name, func(t *testing.T) {
			if got := a.Dialect().DriverName(); got != name {
				t.Errorf("Dialect().DriverName() = %q, want %q", got, name)
			}

			id, err := a.SaveLevel(ctx, NewLevelRecord(42, 1, level))
			if err != nil {
				t.Fatalf("SaveLevel failed: %v", err)
			}
			if id == 0 {
				t.Error("level id should not be 0")
			}

			rec, err := a.GetLevel(ctx, id)
			if err != nil {
				t.Fatalf("GetLevel failed: %v", err)
			}
			if rec.Seed != 42 || rec.Depth != 1 || rec.LevelSeed != 43 {
				t.Errorf("record header = seed %d depth %d level seed %d", rec.Seed, rec.Depth, rec.LevelSeed)
			}
			if rec.RoomCount != len(level.Rooms) {
				t.Errorf("room count = %d, want %d", rec.RoomCount, len(level.Rooms))
			}
			if rec.StairsUp != level.StairsUp || rec.StairsDown != level.StairsDown {
				t.Errorf("stairs = %v/%v, want %v/%v", rec.StairsUp, rec.StairsDown, level.StairsUp, level.StairsDown)
			}
			if rec.CreatedAt.IsZero() {
				t.Error("created_at not set")
			}

			grid, err := rec.Grid()
			if err != nil {
				t.Fatalf("Grid failed: %v", err)
			}
			want := level.Grid.Rows()
			for y, row := range grid.Rows() {
				if row != want[y] {
					t.Errorf("row %d differs:\n%s\n%s", y, row, want[y])
				}
			}
			if grid.At(level.StairsDown.X, level.StairsDown.Y) != dungeon.TileStairsDown {
				t.Error("restored grid lost the stairs down")
			}
		})
	}
}

func TestGetLevelNotFound(t *testing.T) {
	for name, a := range getTestArchives(t) {
		t.Run(name, func(t *testing.T) {
			_, err := a.GetLevel(context.Background(), 9999)
			if !errors.Is(err, ErrLevelNotFound) {
				t.Errorf("GetLevel() error = %v, want ErrLevelNotFound", err)
			}
			_, err = a.FindLevel(context.Background(), 1, 1)
			if !errors.Is(err, ErrLevelNotFound) {
				t.Errorf("FindLevel() error = %v, want ErrLevelNotFound", err)
			}
		})
	}
}

func TestSaveLevelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	level := generateLevel(t, 8)

	for name, a := range getTestArchives(t) {
		t.Run(name, func(t *testing.T) {
			first, err := a.SaveLevel(ctx, NewLevelRecord(7, 1, level))
			if err != nil {
				t.Fatalf("SaveLevel failed: %v", err)
			}
			second, err := a.SaveLevel(ctx, NewLevelRecord(7, 1, level))
			if err != nil {
				t.Fatalf("second SaveLevel failed: %v", err)
			}
			if first != second {
				t.Errorf("duplicate save returned id %d, want %d", second, first)
			}

			count, err := a.CountLevels(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if count != 1 {
				t.Errorf("count = %d, want 1", count)
			}
		})
	}
}

func TestSaveLevelRejectsBadRows(t *testing.T) {
	rec := NewLevelRecord(1, 1, generateLevel(t, 2))
	rec.Rows = rec.Rows[:5]

	for name, a := range getTestArchives(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := a.SaveLevel(context.Background(), rec); err == nil {
				t.Error("expected error for truncated rows")
			}
		})
	}
}

func TestListLevelsAndRecorder(t *testing.T) {
	ctx := context.Background()

	for name, a := range getTestArchives(t) {
		t.Run(name, func(t *testing.T) {
			rec := a.Recorder(100)
			// Record out of order; the listing sorts by depth
			for _, depth := range []int{3, 1, 2} {
				if err := rec.RecordLevel(depth, generateLevel(t, 100+int64(depth))); err != nil {
					t.Fatalf("RecordLevel(%d) failed: %v", depth, err)
				}
			}
			if err := a.Recorder(200).RecordLevel(1, generateLevel(t, 201)); err != nil {
				t.Fatal(err)
			}

			levels, err := a.ListLevels(ctx, 100)
			if err != nil {
				t.Fatalf("ListLevels failed: %v", err)
			}
			if len(levels) != 3 {
				t.Fatalf("got %d levels, want 3", len(levels))
			}
			for i, l := range levels {
				if l.Depth != i+1 || l.Seed != 100 || l.LevelSeed != 100+int64(i+1) {
					t.Errorf("level %d = depth %d seed %d level seed %d", i, l.Depth, l.Seed, l.LevelSeed)
				}
			}

			found, err := a.FindLevel(ctx, 200, 1)
			if err != nil {
				t.Fatalf("FindLevel failed: %v", err)
			}
			if found.LevelSeed != 201 {
				t.Errorf("found level seed %d, want 201", found.LevelSeed)
			}

			empty, err := a.ListLevels(ctx, 999)
			if err != nil || len(empty) != 0 {
				t.Errorf("ListLevels(999) = %v, %v; want empty", empty, err)
			}
		})
	}
}

func TestRecordGridSizeMismatch(t *testing.T) {
	rec := NewLevelRecord(1, 1, generateLevel(t, 2))
	rec.Width = 10

	if _, err := rec.Grid(); !errors.Is(err, dungeon.ErrMalformedRows) {
		t.Errorf("Grid() error = %v, want ErrMalformedRows", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "levels.db")

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpenWithConfigErrors(t *testing.T) {
	if _, err := OpenWithConfig(Config{Driver: "mysql"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := OpenWithConfig(Config{Driver: "sqlite"}); err == nil {
		t.Error("expected error for empty sqlite path")
	}
}

func TestReopenKeepsLevels(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "levels.db")

	a, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := a.SaveLevel(ctx, NewLevelRecord(5, 1, generateLevel(t, 6)))
	if err != nil {
		t.Fatal(err)
	}
	a.Close()

	b, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer b.Close()

	if _, err := b.GetLevel(ctx, id); err != nil {
		t.Errorf("level lost after reopen: %v", err)
	}
}
