package domain

import (
	"errors"
	"sort"
	"testing"
)

func TestInterventionCatalogLookup(t *testing.T) {
	catalog := NewInterventionCatalog(DefaultInterventions())

	entry, err := catalog.Lookup("Smoking cessation")
	if err != nil {
		t.Fatalf("Expected lookup to succeed, got %v", err)
	}
	if entry.ARRLifetime != 17 || entry.ARR5Yr != 5 {
		t.Errorf("Unexpected ARR figures: %+v", entry)
	}

	_, err = catalog.Lookup("Cold plunging")
	if err == nil {
		t.Fatal("Expected error for unknown intervention")
	}
	if !errors.Is(err, ErrUnknownCatalogKey) {
		t.Errorf("Expected ErrUnknownCatalogKey, got %v", err)
	}
}

func TestInterventionCatalogIsCaseSensitive(t *testing.T) {
	catalog := NewInterventionCatalog(DefaultInterventions())

	if _, err := catalog.Lookup("smoking cessation"); !errors.Is(err, ErrUnknownCatalogKey) {
		t.Errorf("Expected case-sensitive lookup to fail, got %v", err)
	}
}

func TestInterventionARRForHorizon(t *testing.T) {
	entry := InterventionEntry{Name: "Physical activity", ARRLifetime: 9, ARR5Yr: 3}

	tests := []struct {
		name     string
		horizon  Horizon
		expected float64
	}{
		{"5yr horizon reads 5yr column", HORIZON_5YR, 3},
		{"10yr horizon reads lifetime column", HORIZON_10YR, 9},
		{"lifetime horizon reads lifetime column", HORIZON_LIFETIME, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.ARRForHorizon(tt.horizon); got != tt.expected {
				t.Errorf("ARRForHorizon(%s) = %v, want %v", tt.horizon, got, tt.expected)
			}
		})
	}
}

func TestLDLTherapyCatalogLookup(t *testing.T) {
	catalog := NewLDLTherapyCatalog(DefaultLDLTherapies())

	entry, err := catalog.Lookup("PCSK9 inhibitor")
	if err != nil {
		t.Fatalf("Expected lookup to succeed, got %v", err)
	}
	if entry.PotencyPercent != 60 {
		t.Errorf("Expected potency 60, got %v", entry.PotencyPercent)
	}

	if _, err := catalog.Lookup("Red yeast rice"); !errors.Is(err, ErrUnknownCatalogKey) {
		t.Errorf("Expected ErrUnknownCatalogKey, got %v", err)
	}
}

func TestCatalogEntriesSorted(t *testing.T) {
	catalog := NewInterventionCatalog(DefaultInterventions())

	entries := catalog.Entries()
	if len(entries) != catalog.Len() {
		t.Fatalf("Entries length %d does not match Len %d", len(entries), catalog.Len())
	}
	if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name }) {
		t.Error("Expected entries sorted by name")
	}
}

func TestCatalogDuplicateNamesOverwrite(t *testing.T) {
	catalog := NewLDLTherapyCatalog([]LDLTherapyEntry{
		{Name: "Ezetimibe", PotencyPercent: 20},
		{Name: "Ezetimibe", PotencyPercent: 25},
	})

	if catalog.Len() != 1 {
		t.Fatalf("Expected one entry after duplicate, got %d", catalog.Len())
	}
	entry, err := catalog.Lookup("Ezetimibe")
	if err != nil {
		t.Fatalf("Expected lookup to succeed, got %v", err)
	}
	if entry.PotencyPercent != 25 {
		t.Errorf("Expected later row to win, got potency %v", entry.PotencyPercent)
	}
}

func TestDefaultCatalogSizes(t *testing.T) {
	if got := len(DefaultInterventions()); got != 11 {
		t.Errorf("Expected 11 default interventions, got %d", got)
	}
	if got := len(DefaultLDLTherapies()); got != 8 {
		t.Errorf("Expected 8 default LDL therapies, got %d", got)
	}
}
