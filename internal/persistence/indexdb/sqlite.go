package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteIndex is a read-model index over resolution runs and phase sweeps.
// Runs are written synchronously (they are rare, one per import); sweep
// stats go through a single writer goroutine so a busy slider never stalls
// the swap path.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan sweepReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

// RunRow describes one resolution run.
type RunRow struct {
	RunID         string
	At            string
	Tiles         int
	Families      int
	Pairs         int
	ChromaFirst   bool
	Threshold     float64
	CatalogDigest string
}

type sweepReq struct {
	row  SweepRow
	done chan struct{} // non-nil for flush barriers
}

// SweepRow describes one applied phase sweep.
type SweepRow struct {
	RunID  string
	At     string
	Phase  int
	Writes int
	Zoned  bool
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan sweepReq, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			at TEXT NOT NULL,
			tiles INTEGER NOT NULL,
			families INTEGER NOT NULL,
			pairs INTEGER NOT NULL,
			chroma_first INTEGER NOT NULL,
			threshold REAL NOT NULL,
			catalog_digest TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS families (
			run_id TEXT NOT NULL,
			tile INTEGER NOT NULL,
			family INTEGER NOT NULL,
			PRIMARY KEY (run_id, tile)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_families_run_family ON families(run_id, family);`,
		`CREATE TABLE IF NOT EXISTS sweeps (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			at TEXT NOT NULL,
			phase INTEGER NOT NULL,
			writes INTEGER NOT NULL,
			zoned INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sweeps_run ON sweeps(run_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRun stores a run and its full family assignment in one transaction.
func (s *SQLiteIndex) RecordRun(run RunRow, families []int) error {
	if s == nil {
		return nil
	}
	if run.At == "" {
		run.At = time.Now().UTC().Format(time.RFC3339Nano)
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO runs(run_id,at,tiles,families,pairs,chroma_first,threshold,catalog_digest) VALUES(?,?,?,?,?,?,?,?)`,
		run.RunID, run.At, run.Tiles, run.Families, run.Pairs, boolInt(run.ChromaFirst), run.Threshold, run.CatalogDigest,
	); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO families(run_id,tile,family) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for tile, fam := range families {
		if _, err := stmt.Exec(run.RunID, tile, fam); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordSweep enqueues one sweep stat row. Drops the row if the indexer
// falls behind; the JSONL sweep log remains the source of truth.
func (s *SQLiteIndex) RecordSweep(row SweepRow) {
	if s == nil || s.closed.Load() {
		return
	}
	if row.At == "" {
		row.At = time.Now().UTC().Format(time.RFC3339Nano)
	}
	select {
	case s.ch <- sweepReq{row: row}:
	default:
	}
}

// LatestRun returns the most recent run, or sql.ErrNoRows.
func (s *SQLiteIndex) LatestRun(ctx context.Context) (RunRow, error) {
	var r RunRow
	var chromaFirst int
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id,at,tiles,families,pairs,chroma_first,threshold,COALESCE(catalog_digest,'') FROM runs ORDER BY at DESC LIMIT 1`,
	).Scan(&r.RunID, &r.At, &r.Tiles, &r.Families, &r.Pairs, &chromaFirst, &r.Threshold, &r.CatalogDigest)
	if err != nil {
		return RunRow{}, err
	}
	r.ChromaFirst = chromaFirst != 0
	return r, nil
}

// FamiliesForRun returns the dense family array recorded for a run.
func (s *SQLiteIndex) FamiliesForRun(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tile, family FROM families WHERE run_id = ? ORDER BY tile`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var tile, fam int
		if err := rows.Scan(&tile, &fam); err != nil {
			return nil, err
		}
		if tile != len(out) {
			return nil, fmt.Errorf("family rows not dense at tile %d", tile)
		}
		out = append(out, fam)
	}
	return out, rows.Err()
}

// SweepCount reports how many sweeps were indexed for a run.
func (s *SQLiteIndex) SweepCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sweeps WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// Flush blocks until every sweep row enqueued so far has been written.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- sweepReq{done: done}
	<-done
}

func (s *SQLiteIndex) loop() {
	insert, _ := s.db.Prepare(`INSERT INTO sweeps(run_id,at,phase,writes,zoned) VALUES(?,?,?,?,?)`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	for req := range s.ch {
		if req.done != nil {
			close(req.done)
			continue
		}
		if insert == nil {
			continue
		}
		row := req.row
		_, _ = insert.Exec(row.RunID, row.At, row.Phase, row.Writes, boolInt(row.Zoned))
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
