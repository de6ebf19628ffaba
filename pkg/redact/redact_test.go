package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	in := "my email is a@b.com and my number is +62 812 3456 7890"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestRedactEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	in := "my email is a@b.com and my number is +62 812 3456 7890"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	for _, want := range []string{"[REDACTED_EMAIL]", "[REDACTED_"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "3456") {
		t.Fatalf("expected digits removed, got %q", got)
	}
}

func TestSecret(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"abc":          "***",
		"0123456789ab": "********89ab",
	}
	for in, want := range cases {
		if got := Secret(in); got != want {
			t.Fatalf("Secret(%q) = %q, want %q", in, got, want)
		}
	}
}
