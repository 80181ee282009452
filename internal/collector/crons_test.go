package collector

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectCrons_MissingFile(t *testing.T) {
	counts, err := collectCrons("/no/such/jobs.json")
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
	if counts.Total != 0 || counts.Enabled != 0 {
		t.Errorf("expected zero counts, got %+v", counts)
	}
}

func TestCollectCrons_Counts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	raw := `[
		{"name": "rotate-logs", "schedule": "0 * * * *", "enabled": true},
		{"name": "nightly-sync", "schedule": "0 2 * * *", "enabled": true},
		{"name": "disabled-job", "schedule": "* * * * *", "enabled": false}
	]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write jobs: %v", err)
	}

	counts, err := collectCrons(path)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if counts.Total != 3 {
		t.Errorf("expected 3 total, got %d", counts.Total)
	}
	if counts.Enabled != 2 {
		t.Errorf("expected 2 enabled, got %d", counts.Enabled)
	}
}

func TestCollectCrons_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write jobs: %v", err)
	}

	if _, err := collectCrons(path); err == nil {
		t.Fatal("expected an error for malformed jobs file")
	}
}
