package log

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]LogLevel{
		"debug": Debug,
		"INFO":  Info,
		"Warn":  Warn,
		"ERROR": Error,
	}

	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Errorf("Parse(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := Parse("verbose"); err == nil {
		t.Error("Parse(verbose) expected error")
	}
}

func TestString_Roundtrip(t *testing.T) {
	for _, level := range []LogLevel{Debug, Info, Warn, Error} {
		got, err := Parse(level.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", level, err)
		}
		if got != level {
			t.Errorf("roundtrip %s -> %s", level, got)
		}
	}
}
