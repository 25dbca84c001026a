package dashboard_test

import (
	"testing"

	"github.com/reelboard/reelboard/lib/dashboard"
	"github.com/reelboard/reelboard/models"
)

func TestToggleGenre_TwiceIsNoOp(t *testing.T) {
	f := dashboard.NewFilterState()

	f.ToggleGenre("Drama")
	if !f.HasGenre("Drama") {
		t.Fatal("expected Drama selected after first toggle")
	}

	f.ToggleGenre("Drama")
	if f.HasGenre("Drama") {
		t.Fatal("expected Drama deselected after second toggle")
	}
	if got := f.Genres(); len(got) != 0 {
		t.Fatalf("expected empty selection, got %v", got)
	}
}

func TestToggleGenre_SetSemantics(t *testing.T) {
	f := dashboard.NewFilterState()
	f.ToggleGenre("Drama")
	f.ToggleGenre("Comedy")
	f.ToggleGenre("Drama")
	f.ToggleGenre("Action")

	got := f.Genres()
	if len(got) != 2 || got[0] != "Action" || got[1] != "Comedy" {
		t.Fatalf("expected [Action Comedy], got %v", got)
	}
}

func TestSetMinRating(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		want    float64
		wantErr bool
	}{
		{"default preserved on error", 0.4, 3.5, true},
		{"above range", 5.5, 3.5, true},
		{"exact step", 4.0, 4.0, false},
		{"snapped to half step", 4.3, 4.5, false},
		{"snapped down", 4.2, 4.0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := dashboard.NewFilterState()
			err := f.SetMinRating(tc.value)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.MinRating(); got != tc.want {
				t.Fatalf("expected min rating %v, got %v", tc.want, got)
			}
		})
	}
}

func TestSetEra(t *testing.T) {
	f := dashboard.NewFilterState()

	if f.Era() != models.EraAny {
		t.Fatalf("expected default era any, got %s", f.Era())
	}
	if err := f.SetEra(models.EraRetro); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Era() != models.EraRetro {
		t.Fatalf("expected retro, got %s", f.Era())
	}
	if err := f.SetEra(models.Era("medieval")); err == nil {
		t.Fatal("expected error for unknown era")
	}
	if f.Era() != models.EraRetro {
		t.Fatal("era changed despite invalid input")
	}
}
