package temperature

import (
	"testing"
	"time"
)

func TestSparklingProfile(t *testing.T) {
	p := ProfileFor(Sparkling)
	if !p.NeedsCooling {
		t.Fatal("sparkling needs cooling")
	}
	if p.LeadTime != 3*time.Hour {
		t.Fatalf("sparkling lead time = %v, want 3h", p.LeadTime)
	}
	if p.WarmUpWindow != 0 {
		t.Fatalf("sparkling stays cold until served, warm-up = %v", p.WarmUpWindow)
	}
}

func TestStructuredRedNeedsNoCooling(t *testing.T) {
	p := ProfileFor(StructuredRed)
	if p.NeedsCooling || p.LeadTime != 0 || p.WarmUpWindow != 0 {
		t.Fatalf("structured red is served at ambient, got %+v", p)
	}
}

func TestEveryCategoryHasProfile(t *testing.T) {
	for _, c := range Categories() {
		if !Valid(c) {
			t.Errorf("category %s has no profile", c)
		}
		if ProfileFor(c).Serving == "" {
			t.Errorf("category %s has no serving description", c)
		}
	}
	if Valid(Category("amphora")) {
		t.Error("unknown category should not validate")
	}
}

func TestWarmUpImpliesCooling(t *testing.T) {
	for _, c := range Categories() {
		p := ProfileFor(c)
		if p.WarmUpWindow > 0 && !p.NeedsCooling {
			t.Errorf("%s has a warm-up window but no cooling step", c)
		}
		if p.NeedsCooling && p.WarmUpWindow >= p.LeadTime {
			t.Errorf("%s warm-up %v must be shorter than lead %v", c, p.WarmUpWindow, p.LeadTime)
		}
	}
}

func TestKeywordSuggest(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Franciacorta Brut Millesimato", Sparkling},
		{"Champagne Blanc de Blancs", Sparkling},
		{"Gavi di Gavi", LightWhite},
		{"Chardonnay Riserva Barrique", StructuredWhite},
		{"Cerasuolo d'Abruzzo", Rose},
		{"Beaujolais Villages", LightRed},
		{"Barolo Riserva", StructuredRed},
		{"Mystery Bottle", StructuredRed},
	}
	for _, tt := range tests {
		if got := KeywordSuggest(tt.name); got != tt.want {
			t.Errorf("KeywordSuggest(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestSuggestIsCaseInsensitive(t *testing.T) {
	if KeywordSuggest("PROSECCO SUPERIORE") != Sparkling {
		t.Error("uppercase names should still match")
	}
}
