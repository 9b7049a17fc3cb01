package domain

import (
	"fmt"
	"sort"
)

// InterventionEntry is a static reference row describing the absolute risk
// reduction, in percentage points, attributed to a non-lipid, non-BP
// intervention over the lifetime and 5-year windows.
//
// There is no dedicated 10-year column: the 10-year horizon reads the
// lifetime ARR, a known approximation of the source model that is preserved
// here rather than corrected.
type InterventionEntry struct {
	Name        string  `json:"name" mapstructure:"name"`
	ARRLifetime float64 `json:"arr_lifetime" mapstructure:"arr_lifetime"`
	ARR5Yr      float64 `json:"arr_5yr" mapstructure:"arr_5yr"`
}

// ARRForHorizon returns the ARR percentage points to apply for the given
// horizon: the 5-year column for the 5-year horizon, the lifetime column
// otherwise.
func (e InterventionEntry) ARRForHorizon(h Horizon) float64 {
	if h == HORIZON_5YR {
		return e.ARR5Yr
	}
	return e.ARRLifetime
}

// LDLTherapyEntry is a static reference row describing the percentage LDL-C
// reduction of a lipid-lowering therapy when used as monotherapy.
type LDLTherapyEntry struct {
	Name           string  `json:"name" mapstructure:"name"`
	PotencyPercent float64 `json:"potency_percent" mapstructure:"potency_percent"`
}

// InterventionCatalog is an immutable, read-only reference table mapping an
// intervention name to its ARR figures. It is injected into the engine as
// configuration data and never mutated at runtime.
type InterventionCatalog struct {
	entries map[string]InterventionEntry
}

// NewInterventionCatalog builds a catalog from reference rows. Later rows
// with a duplicate name overwrite earlier ones.
func NewInterventionCatalog(entries []InterventionEntry) *InterventionCatalog {
	m := make(map[string]InterventionEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &InterventionCatalog{entries: m}
}

// Lookup returns the entry for the given intervention name. A name absent
// from the catalog is a configuration error and is never silently skipped.
func (c *InterventionCatalog) Lookup(name string) (InterventionEntry, error) {
	e, ok := c.entries[name]
	if !ok {
		return InterventionEntry{}, fmt.Errorf("intervention %q: %w", name, ErrUnknownCatalogKey)
	}
	return e, nil
}

// Len returns the number of catalog entries.
func (c *InterventionCatalog) Len() int {
	return len(c.entries)
}

// Entries returns all catalog rows sorted by name.
func (c *InterventionCatalog) Entries() []InterventionEntry {
	out := make([]InterventionEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LDLTherapyCatalog is an immutable reference table mapping a lipid-lowering
// therapy name to its monotherapy potency.
type LDLTherapyCatalog struct {
	entries map[string]LDLTherapyEntry
}

// NewLDLTherapyCatalog builds a catalog from reference rows.
func NewLDLTherapyCatalog(entries []LDLTherapyEntry) *LDLTherapyCatalog {
	m := make(map[string]LDLTherapyEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &LDLTherapyCatalog{entries: m}
}

// Lookup returns the entry for the given therapy name, or
// ErrUnknownCatalogKey when the name is not in the catalog.
func (c *LDLTherapyCatalog) Lookup(name string) (LDLTherapyEntry, error) {
	e, ok := c.entries[name]
	if !ok {
		return LDLTherapyEntry{}, fmt.Errorf("ldl therapy %q: %w", name, ErrUnknownCatalogKey)
	}
	return e, nil
}

// Len returns the number of catalog entries.
func (c *LDLTherapyCatalog) Len() int {
	return len(c.entries)
}

// Entries returns all catalog rows sorted by name.
func (c *LDLTherapyCatalog) Entries() []LDLTherapyEntry {
	out := make([]LDLTherapyEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultInterventions returns the built-in intervention reference table.
// ARR figures are percentage points drawn from the trial evidence cited in
// the calculator (CTT, IMPROVE-IT, FOURIER/ODYSSEY, SPRINT and others).
func DefaultInterventions() []InterventionEntry {
	return []InterventionEntry{
		{Name: "Smoking cessation", ARRLifetime: 17, ARR5Yr: 5},
		{Name: "Antiplatelet (ASA or clopidogrel)", ARRLifetime: 6, ARR5Yr: 2},
		{Name: "BP control (ACEi/ARB +/- CCB)", ARRLifetime: 12, ARR5Yr: 4},
		{Name: "Semaglutide 2.4 mg", ARRLifetime: 4, ARR5Yr: 1},
		{Name: "Weight loss to ideal BMI", ARRLifetime: 10, ARR5Yr: 3},
		{Name: "Empagliflozin", ARRLifetime: 6, ARR5Yr: 2},
		{Name: "Icosapent ethyl (TG >= 1.5)", ARRLifetime: 5, ARR5Yr: 2},
		{Name: "Mediterranean diet", ARRLifetime: 9, ARR5Yr: 3},
		{Name: "Physical activity", ARRLifetime: 9, ARR5Yr: 3},
		{Name: "Alcohol moderation", ARRLifetime: 5, ARR5Yr: 2},
		{Name: "Stress reduction", ARRLifetime: 3, ARR5Yr: 1},
	}
}

// DefaultLDLTherapies returns the built-in lipid-lowering therapy table with
// monotherapy LDL-C reduction percentages.
func DefaultLDLTherapies() []LDLTherapyEntry {
	return []LDLTherapyEntry{
		{Name: "Atorvastatin 20 mg", PotencyPercent: 40},
		{Name: "Atorvastatin 80 mg", PotencyPercent: 50},
		{Name: "Rosuvastatin 10 mg", PotencyPercent: 40},
		{Name: "Rosuvastatin 20-40 mg", PotencyPercent: 55},
		{Name: "Simvastatin 40 mg", PotencyPercent: 35},
		{Name: "Ezetimibe", PotencyPercent: 20},
		{Name: "PCSK9 inhibitor", PotencyPercent: 60},
		{Name: "Bempedoic acid", PotencyPercent: 18},
	}
}
