package roster

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	csv := strings.Join([]string{
		"Name;Email1;Email2",
		"Bob;bob@x.com;bob@work.com",
		"Carol;carol@x.com;",
		";;",
		"Dave;;dave@x.com",
	}, "\n")

	entries, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if got := entries[0].Emails(); len(got) != 2 || got[0] != "bob@x.com" || got[1] != "bob@work.com" {
		t.Fatalf("entry 0 emails = %v", got)
	}
	if got := entries[1].Emails(); len(got) != 1 || got[0] != "carol@x.com" {
		t.Fatalf("entry 1 emails = %v", got)
	}
	if got := entries[2].Emails(); len(got) != 1 || got[0] != "dave@x.com" {
		t.Fatalf("entry 2 emails = %v", got)
	}
}

func TestParseMissingEmail1Column(t *testing.T) {
	if _, err := Parse(strings.NewReader("Name;Mail\nBob;bob@x.com")); err == nil {
		t.Fatalf("expected error for roster without Email1 column")
	}
}
