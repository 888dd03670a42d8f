package identity

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"subtitle after colon", "Gintama: The Final", "Gintama"},
		{"movie suffix", "One Piece Movie", "One Piece"},
		{"the movie suffix", "Gintama: The Movie", "Gintama"},
		{"parenthetical", "Mononoke (2024)", "Mononoke"},
		{"season suffix", "Attack on Titan Season 3", "Attack on Titan"},
		{"dash clause", "Demon Slayer - Kimetsu no Yaiba", "Demon Slayer"},
		{"hyphenated word kept", "Spider-Man", "Spider-Man"},
		{"no rule fires", "  Toy Story  ", "Toy Story"},
		{"empty", "   ", ""},
		{"rules empty the title", "(2020)", "(2020)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle("toy story"); got != "Toy Story" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := DisplayTitle("FLCL"); got != "FLCL" {
		t.Fatalf("expected acronym preserved, got %q", got)
	}
}
