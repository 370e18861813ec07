package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *SQLiteIndex {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordRun_RoundTrip(t *testing.T) {
	s := openTest(t)
	families := []int{0, 0, 1, 2, 1}

	run := RunRow{
		RunID:         "run-1",
		Tiles:         5,
		Families:      3,
		Pairs:         7,
		ChromaFirst:   true,
		Threshold:     0.8,
		CatalogDigest: "deadbeef",
	}
	if err := s.RecordRun(run, families); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	ctx := context.Background()
	got, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.RunID != "run-1" || got.Tiles != 5 || got.Families != 3 || !got.ChromaFirst {
		t.Fatalf("latest run: %+v", got)
	}

	fams, err := s.FamiliesForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("FamiliesForRun: %v", err)
	}
	if len(fams) != len(families) {
		t.Fatalf("families len: got %d want %d", len(fams), len(families))
	}
	for i := range families {
		if fams[i] != families[i] {
			t.Fatalf("family %d: got %d want %d", i, fams[i], families[i])
		}
	}
}

func TestLatestRun_Empty(t *testing.T) {
	s := openTest(t)
	if _, err := s.LatestRun(context.Background()); err != sql.ErrNoRows {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
}

func TestRecordSweep_Indexed(t *testing.T) {
	s := openTest(t)
	if err := s.RecordRun(RunRow{RunID: "run-2", Tiles: 1, Families: 1}, []int{0}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	s.RecordSweep(SweepRow{RunID: "run-2", Phase: 1, Writes: 10})
	s.RecordSweep(SweepRow{RunID: "run-2", Phase: 2, Writes: 0, Zoned: true})
	s.Flush()

	n, err := s.SweepCount(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("SweepCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("sweep count: got %d want 2", n)
	}
}

func TestRecordRun_Replace(t *testing.T) {
	s := openTest(t)
	if err := s.RecordRun(RunRow{RunID: "run-3", Tiles: 2}, []int{0, 1}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	// Re-resolve with the same run id replaces the rows.
	if err := s.RecordRun(RunRow{RunID: "run-3", Tiles: 2}, []int{0, 0}); err != nil {
		t.Fatalf("RecordRun replace: %v", err)
	}
	fams, err := s.FamiliesForRun(context.Background(), "run-3")
	if err != nil {
		t.Fatalf("FamiliesForRun: %v", err)
	}
	if fams[1] != 0 {
		t.Fatalf("replaced family: got %d want 0", fams[1])
	}
}
