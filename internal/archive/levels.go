package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/opendelve/internal/dungeon"
)

var ErrLevelNotFound = errors.New("level not found")

// recordTimeout bounds a single Recorder write
const recordTimeout = 5 * time.Second

// LevelRecord is one archived level. Rows holds the tile glyphs, one
// string per grid row.
type LevelRecord struct {
	ID         int64
	Seed       int64 // Session seed
	Depth      int
	LevelSeed  int64 // Seed the generator ran with
	Width      int
	Height     int
	RoomCount  int
	StairsUp   dungeon.Point
	StairsDown dungeon.Point
	Rows       []string
	CreatedAt  time.Time
}

// NewLevelRecord captures a generated level for storage.
func NewLevelRecord(seed int64, depth int, level *dungeon.Level) LevelRecord {
	return LevelRecord{
		Seed:       seed,
		Depth:      depth,
		LevelSeed:  level.Seed,
		Width:      level.Grid.Width,
		Height:     level.Grid.Height,
		RoomCount:  len(level.Rooms),
		StairsUp:   level.StairsUp,
		StairsDown: level.StairsDown,
		Rows:       level.Grid.Rows(),
	}
}

// Grid rebuilds the tile grid from the stored rows.
func (r *LevelRecord) Grid() (*dungeon.Grid, error) {
	grid, err := dungeon.ParseRows(r.Rows)
	if err != nil {
		return nil, err
	}
	if grid.Width != r.Width || grid.Height != r.Height {
		return nil, fmt.Errorf("%w: stored rows are %dx%d, record says %dx%d",
			dungeon.ErrMalformedRows, grid.Width, grid.Height, r.Width, r.Height)
	}
	return grid, nil
}

const levelColumns = `id, seed, depth, level_seed, width, height, room_count,
	stairs_up_x, stairs_up_y, stairs_down_x, stairs_down_y, tiles, created_at`

// SaveLevel stores rec and returns its id. Saving a level that is already
// archived for the same seed, depth and size returns the existing id.
func (a *Archive) SaveLevel(ctx context.Context, rec LevelRecord) (int64, error) {
	if len(rec.Rows) != rec.Height {
		return 0, fmt.Errorf("level has %d rows, want %d", len(rec.Rows), rec.Height)
	}

	query := a.qb.BuildWithReturning(`INSERT INTO levels (seed, depth, level_seed, width, height, room_count,
		stairs_up_x, stairs_up_y, stairs_down_x, stairs_down_y, tiles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{
		rec.Seed, rec.Depth, rec.LevelSeed, rec.Width, rec.Height, rec.RoomCount,
		rec.StairsUp.X, rec.StairsUp.Y, rec.StairsDown.X, rec.StairsDown.Y,
		strings.Join(rec.Rows, "\n"), time.Now().UTC(),
	}

	var id int64
	var err error
	if a.dialect.SupportsLastInsertID() {
		var result sql.Result
		result, err = a.db.ExecContext(ctx, query, args...)
		if err == nil {
			id, err = result.LastInsertId()
		}
	} else {
		err = a.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}

	if err != nil {
		if a.dialect.IsDuplicateKeyError(err) {
			return a.existingLevelID(ctx, rec)
		}
		return 0, fmt.Errorf("failed to save level: %w", err)
	}
	return id, nil
}

func (a *Archive) existingLevelID(ctx context.Context, rec LevelRecord) (int64, error) {
	var id int64
	err := a.db.QueryRowContext(ctx,
		a.qb.Build("SELECT id FROM levels WHERE seed = ? AND depth = ? AND width = ? AND height = ?"),
		rec.Seed, rec.Depth, rec.Width, rec.Height,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to find existing level: %w", err)
	}
	return id, nil
}

// GetLevel retrieves a level by id.
func (a *Archive) GetLevel(ctx context.Context, id int64) (*LevelRecord, error) {
	row := a.db.QueryRowContext(ctx,
		a.qb.Build("SELECT "+levelColumns+" FROM levels WHERE id = ?"), id)

	rec, err := scanLevel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}
	return rec, nil
}

// FindLevel retrieves the first archived level for a seed and depth.
func (a *Archive) FindLevel(ctx context.Context, seed int64, depth int) (*LevelRecord, error) {
	row := a.db.QueryRowContext(ctx,
		a.qb.Build("SELECT "+levelColumns+" FROM levels WHERE seed = ? AND depth = ? ORDER BY id LIMIT 1"),
		seed, depth)

	rec, err := scanLevel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to find level: %w", err)
	}
	return rec, nil
}

// ListLevels returns every level archived for seed, shallowest first.
func (a *Archive) ListLevels(ctx context.Context, seed int64) ([]LevelRecord, error) {
	rows, err := a.db.QueryContext(ctx,
		a.qb.Build("SELECT "+levelColumns+" FROM levels WHERE seed = ? ORDER BY depth, id"), seed)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var levels []LevelRecord
	for rows.Next() {
		rec, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		levels = append(levels, *rec)
	}
	return levels, rows.Err()
}

// CountLevels returns the number of archived levels.
func (a *Archive) CountLevels(ctx context.Context) (int, error) {
	var count int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM levels").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count levels: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLevel(s scanner) (*LevelRecord, error) {
	var rec LevelRecord
	var tiles string
	err := s.Scan(&rec.ID, &rec.Seed, &rec.Depth, &rec.LevelSeed, &rec.Width, &rec.Height, &rec.RoomCount,
		&rec.StairsUp.X, &rec.StairsUp.Y, &rec.StairsDown.X, &rec.StairsDown.Y, &tiles, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Rows = strings.Split(tiles, "\n")
	return &rec, nil
}

// Recorder stores every level a session generates under one seed.
type Recorder struct {
	archive *Archive
	seed    int64
}

// Recorder returns a level recorder for sessions started from seed.
func (a *Archive) Recorder(seed int64) *Recorder {
	return &Recorder{archive: a, seed: seed}
}

// RecordLevel saves the level with a bounded timeout.
func (r *Recorder) RecordLevel(depth int, level *dungeon.Level) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	_, err := r.archive.SaveLevel(ctx, NewLevelRecord(r.seed, depth, level))
	return err
}
