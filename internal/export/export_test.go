package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderInviteHTML(t *testing.T) {
	invitation := Invitation{
		Title:    "Saturday dinner",
		Host:     "Anna",
		Occasion: "Birthday",
		Date:     time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC),
		Courses: []InviteCourse{
			{Name: "antipasto", Dish: "Crostini", Wine: "Franciacorta Brut"},
			{Name: "main", Dish: "Brasato al Barolo", Wine: "Barolo"},
		},
		Note: "Bring nothing but appetite",
	}

	html, err := RenderInviteHTML(invitation)
	if err != nil {
		t.Fatalf("RenderInviteHTML() error = %v", err)
	}

	for _, want := range []string{
		"Saturday dinner",
		"hosted by Anna",
		"Birthday",
		"Saturday, September 12 at 20:00",
		"Crostini",
		"Franciacorta Brut",
		"Brasato al Barolo",
		"Bring nothing but appetite",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderInviteHTMLEscapesMarkup(t *testing.T) {
	invitation := Invitation{
		Title: "<script>alert(1)</script>",
		Date:  time.Now(),
	}

	html, err := RenderInviteHTML(invitation)
	if err != nil {
		t.Fatalf("RenderInviteHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("template must escape HTML in user fields")
	}
}

func TestRenderInviteHTMLOmitsEmptySections(t *testing.T) {
	invitation := Invitation{
		Title: "Casual pasta night",
		Date:  time.Now(),
	}

	html, err := RenderInviteHTML(invitation)
	if err != nil {
		t.Fatalf("RenderInviteHTML() error = %v", err)
	}
	if strings.Contains(html, "hosted by") {
		t.Error("empty host must not render a host line")
	}
	if strings.Contains(html, `class="occasion"`) {
		t.Error("empty occasion must not render an occasion line")
	}
	if strings.Contains(html, `class="note"`) {
		t.Error("empty note must not render a note section")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Saturday dinner", "Saturday-dinner"},
		{"Città & vino!", "Citt--vino"},
		{"", "invitation"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.input); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
