package locale

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "es", want: LanguageSpanish},
		{input: "es-AR", want: LanguageSpanish},
		{input: "ES_mx", want: LanguageSpanish},
		{input: "en", want: LanguageEnglish},
		{input: "en-US", want: LanguageEnglish},
		{input: "fr", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeLanguage(tc.input); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLanguageFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "es-AR,es;q=0.9", want: LanguageSpanish},
		{input: "en-US,en;q=0.9", want: LanguageEnglish},
		{input: "fr-FR,en;q=0.8,es;q=0.5", want: LanguageEnglish},
		{input: "fr-FR,fr;q=0.9", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := LanguageFromAcceptLanguage(tc.input); got != tc.want {
			t.Fatalf("LanguageFromAcceptLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPreferenceForLanguage(t *testing.T) {
	if pref := PreferenceForLanguage("en"); pref.HTMLLang != "en-US" {
		t.Fatalf("expected en-US, got %+v", pref)
	}
	if pref := PreferenceForLanguage("de"); pref.Language != LanguageSpanish {
		t.Fatalf("expected Spanish fallback, got %+v", pref)
	}
}

func TestPick(t *testing.T) {
	if got := Pick("en", "Not found", "No encontrado"); got != "Not found" {
		t.Fatalf("expected English text, got %q", got)
	}
	if got := Pick("", "Not found", "No encontrado"); got != "No encontrado" {
		t.Fatalf("expected Spanish default, got %q", got)
	}
	if got := Pick("en", "", "No encontrado"); got != "No encontrado" {
		t.Fatalf("expected fallback to Spanish, got %q", got)
	}
}
