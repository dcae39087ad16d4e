package port

import (
	"testing"

	"midirouter-go/errcode"
)

var pico = Counts{USB: 6, Soft: 4, Hard: 2}

func TestParseTokens(t *testing.T) {
	cases := []struct {
		tok  string
		want Port
	}{
		{"1", Port{USB, 0}},
		{"6", Port{USB, 5}},
		{"A", Port{Soft, 0}},
		{"d", Port{Soft, 3}},
		{"E", Port{Hard, 0}},
		{"f", Port{Hard, 1}},
	}
	for _, c := range cases {
		got, err := pico.Parse(c.tok)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.tok, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %v, want %v", c.tok, got, c.want)
		}
		if back := pico.Token(got); back != string([]byte{upper(c.tok[0])}) {
			t.Fatalf("Token(%v) = %q, want %q", got, back, c.tok)
		}
	}
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func TestParseRejects(t *testing.T) {
	for _, tok := range []string{"", "0", "7", "9", "G", "z", "AB", "12", "#", " "} {
		if _, err := pico.Parse(tok); err != errcode.InvalidPort {
			t.Fatalf("Parse(%q) err = %v, want invalid_port", tok, err)
		}
		if pico.ValidToken(tok) {
			t.Fatalf("ValidToken(%q) = true", tok)
		}
	}
}

func TestLetterSplitFollowsCounts(t *testing.T) {
	wide := Counts{USB: 8, Soft: 6, Hard: 2}
	if p, _ := wide.Parse("F"); p != (Port{Soft, 5}) {
		t.Fatalf("F = %v", p)
	}
	if p, _ := wide.Parse("G"); p != (Port{Hard, 0}) {
		t.Fatalf("G = %v", p)
	}
	if p, _ := wide.Parse("8"); p != (Port{USB, 7}) {
		t.Fatalf("8 = %v", p)
	}
	if wide.ValidToken("I") {
		t.Fatal("I valid with 8 serial ports")
	}
}

func TestCanonicalOrder(t *testing.T) {
	all := pico.All()
	if len(all) != pico.Total() {
		t.Fatalf("len = %d", len(all))
	}
	for i, p := range all {
		if pico.Ordinal(p) != i {
			t.Fatalf("ordinal(%v) = %d, want %d", p, pico.Ordinal(p), i)
		}
	}
	if all[0] != (Port{USB, 0}) || all[6] != (Port{Soft, 0}) || all[10] != (Port{Hard, 0}) {
		t.Fatalf("unexpected order: %v", all)
	}
}

func TestValidate(t *testing.T) {
	bad := []Counts{{USB: 0}, {USB: 10}, {USB: 1, Soft: -1}, {USB: 1, Soft: 20, Hard: 7}}
	for _, c := range bad {
		if errcode.Of(c.Validate()) != errcode.InvalidParams {
			t.Fatalf("Validate(%+v) accepted", c)
		}
	}
	if err := pico.Validate(); err != nil {
		t.Fatalf("pico: %v", err)
	}
}

func TestRanges(t *testing.T) {
	if got, want := pico.Ranges(), "1-6 or A-D, E-F"; got != want {
		t.Fatalf("Ranges = %q, want %q", got, want)
	}
	if got, want := (Counts{USB: 1, Hard: 1}).Ranges(), "1 or A"; got != want {
		t.Fatalf("Ranges = %q, want %q", got, want)
	}
	want := "The single character port ID to use in commands can be\r\n" +
		"1-6 for USB MIDI, A-D for Serial MIDI, E-F for hardware Serial MIDI\r\n"
	if got := pico.DescribeRange(); got != want {
		t.Fatalf("DescribeRange = %q", got)
	}
}
