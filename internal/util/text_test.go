package util

import "testing"

func TestLower(t *testing.T) {
	if got := Lower("Influenza, Human"); got != "influenza, human" {
		t.Fatalf("got=%q", got)
	}
	if got := Lower("SJÖGREN'S SYNDROME"); got != "sjögren's syndrome" {
		t.Fatalf("got=%q", got)
	}
}

func TestLowerIdempotent(t *testing.T) {
	for _, s := range []string{"Flu", "GRIPPE", "Sjögren's Syndrome", "C01.001", ""} {
		once := Lower(s)
		if twice := Lower(once); twice != once {
			t.Fatalf("not idempotent for %q: %q vs %q", s, once, twice)
		}
	}
}
