package utils

import "testing"

func TestStr(t *testing.T) {
	if Str(nil) != "" || Str(3) != "3" || Str("x") != "x" {
		t.Fatalf("unexpected Str output")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestFileSafe(t *testing.T) {
	cases := map[string]string{
		"Acme":           "Acme",
		"../../etc":      "_.._etc",
		" Foo/Bar Inc. ": "Foo_Bar Inc",
		"..":             "company",
		"":               "company",
	}
	for in, want := range cases {
		if got := FileSafe(in); got != want {
			t.Fatalf("FileSafe(%q) = %q, want %q", in, got, want)
		}
	}
}
