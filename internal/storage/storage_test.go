package storage

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rewired-gh/bodyweight-dash/internal/models"
)

func mustStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecords() []models.Measurement {
	return []models.Measurement{
		{Subject: "B", Group: "G1", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Weight: 200},
		{Subject: "A", Group: "G1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Weight: 180},
		{Subject: "A", Group: "G1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Weight: 178.5},
	}
}

func TestStorage_ReplaceAllAndLoad(t *testing.T) {
	s := mustStorage(t)

	info, err := s.ReplaceAll("weights.csv", sampleRecords())
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if info.RowCount != 3 || info.ID == "" {
		t.Errorf("Unexpected import info: %+v", info)
	}

	loaded, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	// Insertion order is preserved
	if !reflect.DeepEqual(loaded, sampleRecords()) {
		t.Errorf("LoadAll = %+v, want %+v", loaded, sampleRecords())
	}
}

func TestStorage_ReplaceAllReplaces(t *testing.T) {
	s := mustStorage(t)

	if _, err := s.ReplaceAll("first.csv", sampleRecords()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	second := sampleRecords()[:1]
	if _, err := s.ReplaceAll("second.csv", second); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 measurement after replace, got %d", n)
	}

	last, err := s.LastImport()
	if err != nil {
		t.Fatalf("LastImport failed: %v", err)
	}
	if last == nil || last.Source != "second.csv" {
		t.Errorf("Unexpected last import: %+v", last)
	}
}

func TestStorage_ReplaceAllRejectsInvalid(t *testing.T) {
	s := mustStorage(t)
	if _, err := s.ReplaceAll("good.csv", sampleRecords()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	bad := append(sampleRecords(), models.Measurement{Group: "G1", Date: time.Now(), Weight: 1})
	if _, err := s.ReplaceAll("bad.csv", bad); err == nil {
		t.Fatal("Expected error for invalid measurement")
	}

	// The previous dataset is untouched
	n, _ := s.Count()
	if n != 3 {
		t.Errorf("Expected 3 measurements to survive failed import, got %d", n)
	}
}

func TestStorage_LoadDataset(t *testing.T) {
	s := mustStorage(t)

	empty, err := s.LoadDataset()
	if err != nil {
		t.Fatalf("LoadDataset on empty store failed: %v", err)
	}
	if empty.Len() != 0 || empty.ID == "" {
		t.Errorf("Unexpected empty dataset: len=%d id=%q", empty.Len(), empty.ID)
	}

	info, err := s.ReplaceAll("weights.csv", sampleRecords())
	if err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	ds, err := s.LoadDataset()
	if err != nil {
		t.Fatalf("LoadDataset failed: %v", err)
	}
	if ds.ID != info.ID {
		t.Errorf("Dataset ID %q should match import ID %q", ds.ID, info.ID)
	}
	if got := ds.Subjects(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("Unexpected subjects: %v", got)
	}
}

func TestStorage_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bodyweight.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.ReplaceAll("weights.csv", sampleRecords()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 persisted measurements, got %d", n)
	}
}
