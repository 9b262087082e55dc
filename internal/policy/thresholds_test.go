package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/watchdog/internal/model"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore("")

	want := Table{
		model.DomainGeneral: {Warn: 50, Block: 80},
		model.DomainHealth:  {Warn: 40, Block: 70},
		model.DomainFinance: {Warn: 45, Block: 75},
		model.DomainLegal:   {Warn: 40, Block: 70},
	}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("Default table mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupFallback(t *testing.T) {
	s := NewStaticStore(Table{
		model.DomainGeneral: {Warn: 10, Block: 20},
		model.DomainHealth:  {Warn: 30, Block: 40},
	})

	got, err := s.Lookup(model.DomainHealth)
	if err != nil || got != (Threshold{Warn: 30, Block: 40}) {
		t.Errorf("Expected health thresholds, got %+v (%v)", got, err)
	}

	got, err = s.Lookup("astrology")
	if err != nil || got != (Threshold{Warn: 10, Block: 20}) {
		t.Errorf("Expected general fallback, got %+v (%v)", got, err)
	}
}

func TestLookupWithoutGeneral(t *testing.T) {
	s := NewStaticStore(Table{model.DomainHealth: {Warn: 30, Block: 40}})

	got, err := s.Lookup(model.DomainFinance)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != (Threshold{Warn: DefaultWarn, Block: DefaultBlock}) {
		t.Errorf("Expected documented defaults, got %+v", got)
	}
}

func TestParseTableMissingKeys(t *testing.T) {
	table, err := ParseTable([]byte(`{"general": {"warn": 30}, "legal": {}}`))
	if err != nil {
		t.Fatalf("ParseTable failed: %v", err)
	}
	if table[model.DomainGeneral] != (Threshold{Warn: 30, Block: 80}) {
		t.Errorf("Expected block default, got %+v", table[model.DomainGeneral])
	}
	if table[model.DomainLegal] != (Threshold{Warn: 50, Block: 80}) {
		t.Errorf("Expected both defaults, got %+v", table[model.DomainLegal])
	}
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"malformed", "general: [warn"},
		{"inverted", "general: {warn: 90, block: 10}"},
		{"out of range", "general: {warn: 10, block: 150}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTable([]byte(tt.data)); err == nil {
				t.Errorf("Expected error for %q", tt.data)
			}
		})
	}
}

func TestStoreMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := s.Lookup(model.DomainGeneral)
	if !errors.Is(err, ErrNoThresholds) {
		t.Errorf("Expected ErrNoThresholds, got %v", err)
	}
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte("general: {warn: 20, block: 60}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if got, _ := s.Lookup(model.DomainGeneral); got.Block != 60 {
		t.Fatalf("Expected block 60, got %d", got.Block)
	}

	if err := os.WriteFile(path, []byte("general: {warn: oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Error("Expected reload error for malformed file")
	}
	if got, err := s.Lookup(model.DomainGeneral); err != nil || got.Block != 60 {
		t.Errorf("Expected previous table to stay active, got %+v (%v)", got, err)
	}

	if err := os.WriteFile(path, []byte("general: {warn: 25, block: 65}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got, _ := s.Lookup(model.DomainGeneral); got.Block != 65 {
		t.Errorf("Expected block 65 after reload, got %d", got.Block)
	}
}
