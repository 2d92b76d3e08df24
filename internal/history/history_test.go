package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "fable.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	db := openTestDB(t)

	runs := []Run{
		{ID: "run-1", Task: "short story", TargetWords: 2000, ActualWords: 1950,
			Nodes: 1, Leaves: 1, InputTokens: 500, OutputTokens: 2600,
			OutputPath: "story.md", Duration: 40 * time.Second},
		{ID: "run-2", Task: "travel essay", TargetWords: 8000, ActualWords: 8210,
			Nodes: 5, Leaves: 4, InputTokens: 3100, OutputTokens: 11000,
			Duration: 3 * time.Minute},
	}
	for _, r := range runs {
		if err := db.RecordRun(r); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", r.ID, err)
		}
	}

	got, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}

	byID := map[string]Run{}
	for _, r := range got {
		byID[r.ID] = r
	}

	first := byID["run-1"]
	if first.Task != "short story" || first.TargetWords != 2000 || first.ActualWords != 1950 {
		t.Errorf("run-1 fields wrong: %+v", first)
	}
	if first.OutputPath != "story.md" {
		t.Errorf("run-1 output path = %q", first.OutputPath)
	}
	if first.Duration != 40*time.Second {
		t.Errorf("run-1 duration = %v", first.Duration)
	}

	second := byID["run-2"]
	if second.OutputPath != "" {
		t.Errorf("run-2 should have an empty output path, got %q", second.OutputPath)
	}
	if second.Leaves != 4 || second.OutputTokens != 11000 {
		t.Errorf("run-2 fields wrong: %+v", second)
	}
}

func TestListRuns_Limit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		run := Run{ID: string(rune('a' + i)), Task: "t", TargetWords: 100, ActualWords: 100, Nodes: 1, Leaves: 1}
		if err := db.RecordRun(run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	got, err := db.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d runs, want 3", len(got))
	}
}
