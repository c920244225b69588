package store

import (
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetConfig(ConfigKeyDefaultRuleset); err == nil {
		t.Fatalf("GetConfig on missing key should fail")
	}
	if got := s.GetDefaultRuleset("default"); got != "default" {
		t.Fatalf("GetDefaultRuleset fallback = %q, want %q", got, "default")
	}

	if err := s.SetConfig(ConfigKeyDefaultRuleset, "combined_po"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	got, err := s.GetConfig(ConfigKeyDefaultRuleset)
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if got != "combined_po" {
		t.Fatalf("after set = %q, want %q", got, "combined_po")
	}
	if got := s.GetDefaultRuleset("default"); got != "combined_po" {
		t.Fatalf("GetDefaultRuleset = %q, want %q", got, "combined_po")
	}
}

func TestConfigBool(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetConfigBool(ConfigKeyNormalizeJobLast4); err == nil {
		t.Fatalf("GetConfigBool on missing key should fail")
	}

	if err := s.SetConfigBool(ConfigKeyNormalizeJobLast4, false); err != nil {
		t.Fatalf("SetConfigBool: %v", err)
	}
	v, err := s.GetConfigBool(ConfigKeyNormalizeJobLast4)
	if err != nil {
		t.Fatalf("GetConfigBool: %v", err)
	}
	if v {
		t.Fatalf("after set = true, want false")
	}

	if err := s.SetConfig(ConfigKeyNormalizeJobLast4, "1"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	v, err = s.GetConfigBool(ConfigKeyNormalizeJobLast4)
	if err != nil {
		t.Fatalf("GetConfigBool: %v", err)
	}
	if !v {
		t.Fatalf("numeric truthy value = false, want true")
	}
}

func TestRecentFilesPruned(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < recentFilesMax+3; i++ {
		path := fmt.Sprintf("/exports/file_%02d.xlsx", i)
		if err := s.TouchRecentFile(path, "logic"); err != nil {
			t.Fatalf("TouchRecentFile(%s): %v", path, err)
		}
	}

	files, err := s.ListRecentFiles()
	if err != nil {
		t.Fatalf("ListRecentFiles: %v", err)
	}
	if len(files) != recentFilesMax {
		t.Fatalf("recent files = %d, want %d", len(files), recentFilesMax)
	}
	// 最新使用的排在最前
	if files[0].Path != fmt.Sprintf("/exports/file_%02d.xlsx", recentFilesMax+2) {
		t.Fatalf("first recent file = %s", files[0].Path)
	}
}

func TestRecentFileUpsert(t *testing.T) {
	s := newTestStore(t)

	if err := s.TouchRecentFile("/exports/a.xlsx", "logic"); err != nil {
		t.Fatalf("TouchRecentFile: %v", err)
	}
	if err := s.TouchRecentFile("/exports/a.xlsx", "logic"); err != nil {
		t.Fatalf("TouchRecentFile again: %v", err)
	}

	files, err := s.ListRecentFiles()
	if err != nil {
		t.Fatalf("ListRecentFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("recent files = %d, want 1", len(files))
	}
}
