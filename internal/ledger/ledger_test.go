package ledger

import (
	"testing"
	"time"

	"github.com/snlxnet/bridge/internal/vault"
)

func testVault(t *testing.T) *vault.FS {
	t.Helper()
	v, err := vault.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return v
}

func TestOpen_CreatesSentinelIdempotently(t *testing.T) {
	v := testVault(t)
	if _, err := Open(v); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := v.Read(SentinelPath); err != nil {
		t.Fatalf("sentinel not created: %v", err)
	}
	if _, err := Open(v); err != nil {
		t.Fatalf("second Open: %v", err)
	}
}

func TestShouldPublishNote_NewAndRepeat(t *testing.T) {
	v := testVault(t)
	l, _ := Open(v)

	if !l.ShouldPublishNote("a.md", "2026-08-29") {
		t.Error("unseen note should publish")
	}
	if l.ShouldPublishNote("a.md", "2026-08-29") {
		t.Error("same marker twice should not publish")
	}
	if !l.ShouldPublishNote("a.md", "2026-08-30") {
		t.Error("changed marker should publish")
	}
}

func TestShouldPublishAsset_ToleranceWindow(t *testing.T) {
	v := testVault(t)
	l, _ := Open(v)

	base := time.Unix(1_700_000_000, 0)
	if !l.ShouldPublishAsset("a.png", base) {
		t.Fatal("unseen asset should publish")
	}
	if l.ShouldPublishAsset("a.png", base.Add(14*time.Minute)) {
		t.Error("within window should be unchanged")
	}

	_ = l.ShouldPublishAsset("b.png", base)
	if l.ShouldPublishAsset("b.png", base.Add(-14*time.Minute)) {
		t.Error("within window (earlier) should be unchanged")
	}

	_ = l.ShouldPublishAsset("c.png", base)
	if !l.ShouldPublishAsset("c.png", base.Add(15*time.Minute)) {
		t.Error("exactly at window boundary should be changed")
	}
}

func TestShouldPublishAsset_MarkerRefreshedWhenUnchanged(t *testing.T) {
	v := testVault(t)
	l, _ := Open(v)

	base := time.Unix(1_700_000_000, 0)
	_ = l.ShouldPublishAsset("img.png", base)
	if l.ShouldPublishAsset("img.png", base.Add(10*time.Minute)) {
		t.Fatal("10 minute drift should be unchanged")
	}
	// The unchanged run refreshed the marker to base+10m, so 20 minutes
	// past base is only 10 minutes past the marker and stays unchanged.
	if l.ShouldPublishAsset("img.png", base.Add(20*time.Minute)) {
		t.Error("marker must follow the observed value on unchanged runs")
	}
	if !l.ShouldPublishAsset("img.png", base.Add(40*time.Minute)) {
		t.Error("drift past the window from the refreshed marker should publish")
	}
}

func TestCommit_RoundTrip(t *testing.T) {
	v := testVault(t)
	l, _ := Open(v)

	mtime := time.Unix(1_700_000_000, 0)
	_ = l.ShouldPublishNote("a.md", "2026-08-29")
	_ = l.ShouldPublishAsset("img.png", mtime)
	if err := l.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := Open(v)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ShouldPublishNote("a.md", "2026-08-29") {
		t.Error("note marker lost across commit")
	}
	if reopened.ShouldPublishAsset("img.png", mtime.Add(time.Minute)) {
		t.Error("asset marker lost across commit")
	}
}

func TestNoteAndAssetNamesDoNotCollide(t *testing.T) {
	v := testVault(t)
	l, _ := Open(v)

	_ = l.ShouldPublishNote("thing", "2026-08-29")
	if !l.ShouldPublishAsset("thing", time.Unix(1_700_000_000, 0)) {
		t.Error("asset map must be independent of note map")
	}
}
