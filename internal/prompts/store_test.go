package prompts

import (
	"strings"
	"testing"
)

func TestGetUnknownNameReturnsFallback(t *testing.T) {
	s := NewStore()
	got := s.Get("no_such_template", map[string]string{"QUERY": "x"})
	if got != Fallback {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestRenderReplacesRepeatedKeys(t *testing.T) {
	got := Render("{A} and {A} but not {B}", map[string]string{"A": "x"})
	if got != "x and x but not {B}" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderLeavesUnmatchedTokens(t *testing.T) {
	got := Render("hello {NAME}", nil)
	if got != "hello {NAME}" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestUpdateOverwritesSilently(t *testing.T) {
	s := NewStore()
	s.Update(TemplateDocumentChat, "custom {DOCUMENTS}")
	got := s.Get(TemplateDocumentChat, map[string]string{"DOCUMENTS": "d"})
	if got != "custom d" {
		t.Fatalf("unexpected render after update: %q", got)
	}
}

func TestUpdateRegistersNewName(t *testing.T) {
	s := NewStore()
	if s.Has("greeting") {
		t.Fatalf("unexpected template before update")
	}
	s.Update("greeting", "hi {NAME}")
	if !s.Has("greeting") {
		t.Fatalf("template missing after update")
	}
	if got := s.Get("greeting", map[string]string{"NAME": "bob"}); got != "hi bob" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestListIsSorted(t *testing.T) {
	s := NewStore()
	s.Update("aaa_first", "x")
	names := s.List()
	if len(names) != len(defaultTemplates)+1 {
		t.Fatalf("unexpected name count: %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestEstimateTokenCountIsCeilOfQuarter(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 8), 2},
		{strings.Repeat("x", 9), 3},
	}
	for _, tc := range cases {
		if got := EstimateTokenCount(tc.text); got != tc.want {
			t.Fatalf("EstimateTokenCount(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestEstimateTokensIsIdempotent(t *testing.T) {
	s := NewStore()
	params := map[string]string{"QUERY": "what is this"}
	r1, n1 := s.EstimateTokens(TemplateSearchEnhancement, params)
	r2, n2 := s.EstimateTokens(TemplateSearchEnhancement, params)
	if r1 != r2 || n1 != n2 {
		t.Fatalf("estimate not stable: (%q,%d) vs (%q,%d)", r1, n1, r2, n2)
	}
	if n1 != (len(r1)+3)/4 {
		t.Fatalf("token count %d does not match rendered length %d", n1, len(r1))
	}
}
