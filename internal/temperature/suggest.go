package temperature

import "strings"

// Suggester proposes a default category from a wine's display name. It is a
// best-effort default the user can always override before scheduling; it never
// blocks confirmation.
type Suggester func(name string) Category

var sparklingTerms = []string{
	"spumante", "champagne", "prosecco", "franciacorta", "metodo classico",
	"cremant", "crémant", "cava", "brut", "sparkling", "pet-nat", "lambrusco",
}

var whiteTerms = []string{
	"bianco", "blanc", "white", "chardonnay", "sauvignon", "riesling",
	"vermentino", "gavi", "soave", "verdicchio", "pinot grigio", "gewurztraminer",
	"gewürztraminer", "albariño", "albarino", "greco", "fiano",
}

var roseTerms = []string{"rosato", "rosé", "rose ", "cerasuolo", "chiaretto"}

var structuredTerms = []string{"riserva", "barrique", "gran selezione", "reserve", "reserva"}

var lightRedTerms = []string{
	"beaujolais", "gamay", "pinot nero", "pinot noir", "frappato",
	"schiava", "grignolino", "valpolicella classico",
}

// KeywordSuggest is the default Suggester: keyword matching over the display
// name, falling back to structured red (served at ambient, never scheduled).
func KeywordSuggest(name string) Category {
	lower := strings.ToLower(name)

	contains := func(terms []string) bool {
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false
	}

	switch {
	case contains(sparklingTerms):
		return Sparkling
	case contains(roseTerms) || strings.HasSuffix(lower, "rose"):
		return Rose
	case contains(whiteTerms):
		if contains(structuredTerms) {
			return StructuredWhite
		}
		return LightWhite
	case contains(lightRedTerms):
		return LightRed
	default:
		return StructuredRed
	}
}
