package cmdutil

import (
	"strings"
	"testing"

	"github.com/CVDpl/go-marisa/pkg/marisa"
)

func TestParseKeyLine(t *testing.T) {
	tests := []struct {
		line   string
		key    string
		weight float32
	}{
		{"apple", "apple", 1},
		{"apple\t2.5", "apple", 2.5},
		{"a\tb\t3", "a\tb", 3},
		{"tab\tnot-a-number", "tab\tnot-a-number", 1},
		{"", "", 1},
	}
	for _, tt := range tests {
		key, weight := ParseKeyLine(tt.line)
		if key != tt.key || weight != tt.weight {
			t.Errorf("ParseKeyLine(%q) = %q, %v; want %q, %v", tt.line, key, weight, tt.key, tt.weight)
		}
	}
}

func TestReadKeysStops(t *testing.T) {
	var got []string
	more, err := ReadKeys(strings.NewReader("a\nb\nc\n"), func(k string, _ float32) bool {
		got = append(got, k)
		return len(got) < 2
	})
	if err != nil || more {
		t.Fatalf("ReadKeys = %v, %v", more, err)
	}
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("read %v", got)
	}
}

func TestFormatFields(t *testing.T) {
	if got := formatFields([]interface{}{"keys", 3, "path", "x", "dangling"}); got != " keys=3 path=x" {
		t.Errorf("formatFields = %q", got)
	}
}

func TestSearchLoop(t *testing.T) {
	search := func(q string) ([]marisa.Key, error) {
		if q == "none" {
			return nil, nil
		}
		return []marisa.Key{{ID: 0, Key: "a"}, {ID: 4, Key: q}}, nil
	}
	var out strings.Builder
	if err := SearchLoop(strings.NewReader("none\nab\n"), &out, 1, search); err != nil {
		t.Fatal(err)
	}
	want := "not found\n2 found\n0\ta\n"
	if out.String() != want {
		t.Errorf("output %q, want %q", out.String(), want)
	}
}
