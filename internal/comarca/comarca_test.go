package comarca

import "testing"

func TestResolveKnownCode(t *testing.T) {
	if got := Resolve("0114"); got != "Campinas" {
		t.Fatalf("Resolve(0114) = %q, want Campinas", got)
	}
}

func TestResolveUnknownCodePlaceholder(t *testing.T) {
	if got := Resolve("9999"); got != "Código 9999" {
		t.Fatalf("Resolve(9999) = %q, want placeholder", got)
	}
}

func TestResolveTribunalKeyed(t *testing.T) {
	cases := []struct {
		tribunal, code, want string
	}{
		// "0001" exists in both numberings and must never cross over.
		{"TJBA", "0001", "Salvador"},
		{"TJSP", "0001", "Foro Regional I - Santana"},
		{"TJBA", "0002", "Feira de Santana"},
		{"tjba", "0001", "Salvador"},
		{"TJBA", "9999", "Código 9999"},
		{"TJMG", "0024", "Código 0024"},
	}
	for _, tc := range cases {
		if got := ResolveTribunal(tc.tribunal, tc.code); got != tc.want {
			t.Errorf("ResolveTribunal(%q, %q) = %q, want %q", tc.tribunal, tc.code, got, tc.want)
		}
	}
}

func TestFilterAggregateExpansion(t *testing.T) {
	f := NewFilter([]string{"São Paulo"})

	// Regional forum: resolved name shares no substring with the
	// aggregate label, so only code expansion can match it.
	if !f.Matches("0007", Resolve("0007")) {
		t.Error("capital regional forum 0007 should match São Paulo aggregate")
	}
	if !f.Matches("0100", Resolve("0100")) {
		t.Error("central forum 0100 should match São Paulo aggregate")
	}
	if f.Matches("0114", Resolve("0114")) {
		t.Error("Campinas must not match São Paulo aggregate")
	}
}

func TestFilterAggregateSpellings(t *testing.T) {
	for _, label := range []string{"sao paulo", "SP Capital", "São Paulo (Capital)"} {
		f := NewFilter([]string{label})
		if !f.Matches("0002", Resolve("0002")) {
			t.Errorf("label %q should expand to capital forum codes", label)
		}
	}
}

func TestFilterSubstringFallback(t *testing.T) {
	f := NewFilter([]string{"campinas"})
	if !f.Matches("0114", "Campinas") {
		t.Error("plain name should substring-match")
	}
	if f.Matches("0127", "Santos") {
		t.Error("Santos should not match campinas")
	}
}

func TestFilterEmptyMatchesAll(t *testing.T) {
	f := NewFilter(nil)
	if !f.Matches("0000", "anything") {
		t.Error("empty filter should match everything")
	}
}
