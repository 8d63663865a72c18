// Package store handles SQLite persistence of roster snapshots and cached
// responses.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/statsheet/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_units (
			snapshot_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			rarity INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_equipment (
			snapshot_id INTEGER NOT NULL,
			unit_position INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			equipment_id INTEGER NOT NULL,
			equipped INTEGER NOT NULL,
			enhance_level INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, unit_position, slot)
		);`,
		`CREATE TABLE IF NOT EXISTS response_cache (
			kind TEXT NOT NULL,
			key TEXT NOT NULL,
			payload BLOB NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (kind, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_saved_at ON snapshots(saved_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot stores snap under name, replacing any snapshot with the same
// name.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap model.Snapshot, savedAt time.Time) (err error) {
	if name == "" {
		return errors.New("snapshot name is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = deleteSnapshot(ctx, tx, name); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO snapshots (name, saved_at) VALUES (?, ?)`,
		name, savedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for pos, unit := range snap.Units {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_units (snapshot_id, position, name, rarity, rank, level) VALUES (?, ?, ?, ?, ?, ?)`,
			id, pos, unit.Name, unit.Rarity, unit.Rank, unit.Level,
		); err != nil {
			return err
		}
		for _, eq := range unit.Equipment {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO snapshot_equipment (snapshot_id, unit_position, slot, equipment_id, equipped, enhance_level)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				id, pos, eq.Slot, eq.EquipmentID, eq.Equipped, eq.EnhanceLevel,
			); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// LoadSnapshot returns the snapshot stored under name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (model.Snapshot, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshots WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, rarity, rank, level FROM snapshot_units WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var snap model.Snapshot
	for rows.Next() {
		var unit model.UnitSnapshot
		if err := rows.Scan(&unit.Name, &unit.Rarity, &unit.Rank, &unit.Level); err != nil {
			return model.Snapshot{}, false, err
		}
		snap.Units = append(snap.Units, unit)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, false, err
	}

	eqRows, err := s.db.QueryContext(ctx,
		`SELECT unit_position, slot, equipment_id, equipped, enhance_level
		 FROM snapshot_equipment WHERE snapshot_id = ? ORDER BY unit_position, slot`, id)
	if err != nil {
		return model.Snapshot{}, false, err
	}
	defer func() {
		if cerr := eqRows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for eqRows.Next() {
		var pos int
		var eq model.EquipmentSnapshot
		if err := eqRows.Scan(&pos, &eq.Slot, &eq.EquipmentID, &eq.Equipped, &eq.EnhanceLevel); err != nil {
			return model.Snapshot{}, false, err
		}
		if pos < 0 || pos >= len(snap.Units) {
			continue
		}
		snap.Units[pos].Equipment = append(snap.Units[pos].Equipment, eq)
	}
	if err := eqRows.Err(); err != nil {
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}

// ListSnapshots returns stored snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]model.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.name, s.saved_at, COUNT(u.position)
		FROM snapshots s
		LEFT JOIN snapshot_units u ON u.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SnapshotInfo
	for rows.Next() {
		var info model.SnapshotInfo
		var savedAt string
		if err := rows.Scan(&info.Name, &savedAt, &info.Units); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, err
		}
		info.SavedAt = parsed
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSnapshot removes the snapshot stored under name and reports whether
// it existed.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) (found bool, err error) {
	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM snapshots WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	if err = deleteSnapshot(ctx, tx, name); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func deleteSnapshot(ctx context.Context, tx *sql.Tx, name string) error {
	stmts := []string{
		`DELETE FROM snapshot_equipment WHERE snapshot_id IN (SELECT id FROM snapshots WHERE name = ?)`,
		`DELETE FROM snapshot_units WHERE snapshot_id IN (SELECT id FROM snapshots WHERE name = ?)`,
		`DELETE FROM snapshots WHERE name = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, name); err != nil {
			return err
		}
	}
	return nil
}
