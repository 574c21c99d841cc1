package match

import (
	"testing"

	"github.com/iksnae/practice-reconcile/internal"
)

func TestResolve(t *testing.T) {
	idx := BuildIndex([]internal.ClientIdentity{
		{ID: "c1", CanonicalName: "Lilli D Schillaci"},
		{ID: "c2", CanonicalName: "Anna Silva"},
		{ID: "c3", CanonicalName: "Anna Souza"},
		{ID: "c4", CanonicalName: "Bruno Almeida", NameVariants: []string{"Bru"}},
	})

	tests := []struct {
		name     string
		raw      string
		wantID   string
		wantOK   bool
		strategy Strategy
	}{
		{name: "middle token tolerance", raw: "Lilly Schillaci", wantID: "c1", wantOK: true, strategy: StrategySurname},
		{name: "exact", raw: "  ANNA   silva ", wantID: "c2", wantOK: true, strategy: StrategyExact},
		{name: "reversed order", raw: "Souza Anna", wantID: "c3", wantOK: true, strategy: StrategyExact},
		{name: "alias", raw: "bru", wantID: "c4", wantOK: true, strategy: StrategyExact},
		{name: "extra middle name", raw: "Bruno Carlos Almeida", wantID: "c4", wantOK: true, strategy: StrategyTwoToken},
		{name: "first name only matches no surname", raw: "Anna", wantOK: false},
		{name: "unknown", raw: "Zed Quux", wantOK: false},
		{name: "empty", raw: "   ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.raw, idx)
			if ok != tt.wantOK || got != tt.wantID {
				t.Fatalf("Resolve(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.wantID, tt.wantOK)
			}
			if tt.wantOK {
				if res := ResolveDetailed(tt.raw, idx); res.Strategy != tt.strategy {
					t.Errorf("strategy = %q, want %q", res.Strategy, tt.strategy)
				}
			}
		})
	}
}

func TestResolve_LillyScenario(t *testing.T) {
	idx := BuildIndex([]internal.ClientIdentity{{ID: "c1", CanonicalName: "Lilli D Schillaci"}})
	if got, ok := Resolve("Lilly Schillaci", idx); !ok || got != "c1" {
		t.Errorf("Resolve() = %q, %v; want c1", got, ok)
	}
}

func TestResolve_AmbiguousSurname(t *testing.T) {
	idx := BuildIndex([]internal.ClientIdentity{
		{ID: "c1", CanonicalName: "Anna Silva"},
		{ID: "c2", CanonicalName: "Pedro Silva"},
	})

	res := ResolveDetailed("Joana Silva", idx)
	if res.Found() {
		t.Fatalf("expected no match, got %q", res.ClientID)
	}
	if !res.Ambiguous() || len(res.Candidates) != 2 {
		t.Errorf("Candidates = %v, want 2", res.Candidates)
	}
	if res.Reason == "" {
		t.Error("expected a reason for the ambiguous result")
	}
}

func TestResolve_AmbiguousInitial(t *testing.T) {
	idx := BuildIndex([]internal.ClientIdentity{
		{ID: "c2", CanonicalName: "Anna Silva"},
		{ID: "c3", CanonicalName: "Anna Souza"},
	})

	res := ResolveDetailed("Anna S", idx)
	if res.Found() {
		t.Fatalf("expected no match, got %q", res.ClientID)
	}
	if !res.Ambiguous() || len(res.Candidates) != 2 {
		t.Errorf("Candidates = %v, want both Anna clients", res.Candidates)
	}
}

func TestResolve_SurnameSubstring(t *testing.T) {
	// A partial surname still resolves when only one client contains it.
	idx := BuildIndex([]internal.ClientIdentity{
		{ID: "c1", CanonicalName: "Carla Fernandes"},
		{ID: "c2", CanonicalName: "Rui Matos"},
	})

	got, ok := Resolve("Carla Fern", idx)
	if !ok || got != "c1" {
		t.Errorf("Resolve() = %q, %v; want c1", got, ok)
	}
}

func TestResolve_NilIndex(t *testing.T) {
	if _, ok := Resolve("Anna Silva", nil); ok {
		t.Error("nil index should never resolve")
	}
}
