package history

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "bridge-history-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := testDB(t)
	start := time.Now().Truncate(time.Second)

	id, err := db.Begin(start)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := db.RecordArtifact(id, "a.md", "note", "public"); err != nil {
		t.Fatalf("RecordArtifact: %v", err)
	}
	if err := db.RecordArtifact(id, "img.png", "asset", "secret"); err != nil {
		t.Fatalf("RecordArtifact: %v", err)
	}
	if err := db.Finish(id, start.Add(time.Second), Outcome{
		PublicNotes: 1, SecretAssets: 1, SiteOK: true, StoreOK: false, Detail: "store: 1 failed",
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	runs, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	r := runs[0]
	if r.PublicNotes != 1 || r.SecretAssets != 1 {
		t.Errorf("counts = %+v", r)
	}
	if !r.SiteOK || r.StoreOK {
		t.Errorf("siteOK/storeOK = %v/%v, want true/false", r.SiteOK, r.StoreOK)
	}
	if r.Detail != "store: 1 failed" {
		t.Errorf("detail = %q", r.Detail)
	}

	arts, err := db.Artifacts(id)
	if err != nil {
		t.Fatalf("Artifacts: %v", err)
	}
	if len(arts) != 2 || arts[0] != "a.md" || arts[1] != "img.png" {
		t.Errorf("artifacts = %v", arts)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 3; i++ {
		id, _ := db.Begin(time.Now())
		_ = db.Finish(id, time.Now(), Outcome{PublicNotes: i})
	}
	runs, err := db.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID < runs[1].ID {
		t.Error("runs not newest first")
	}
}
