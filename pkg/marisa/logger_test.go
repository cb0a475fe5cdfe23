package marisa

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("log line %q is not JSON: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestDefaultLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "n", 1)
	LogError(l, "failed", errors.New("boom"), "path", "x")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["level"] != "WARN" || lines[0]["message"] != "shown" || lines[0]["n"] != float64(1) {
		t.Errorf("warn line = %v", lines[0])
	}
	if lines[1]["level"] != "ERROR" || lines[1]["error"] != "boom" || lines[1]["path"] != "x" {
		t.Errorf("error line = %v", lines[1])
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewWriterLogger(&buf, LogLevelDebug)

	l := WithContext(WithContext(base, map[string]interface{}{"dict": "a"}), map[string]interface{}{"shard": 2})
	l.Info("hello", "dict", "b")
	base.WithFields(map[string]interface{}{"component": "test"}).Debug("fields")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["dict"] != "b" || lines[0]["shard"] != float64(2) {
		t.Errorf("context line = %v", lines[0])
	}
	if lines[1]["component"] != "test" {
		t.Errorf("fields line = %v", lines[1])
	}
}

func TestLogLatency(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, LogLevelDebug)
	LogLatency(l, "quick", time.Now())
	LogLatency(l, "slow", time.Now().Add(-2*slowOperation))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["level"] != "DEBUG" || lines[0]["operation"] != "quick" {
		t.Errorf("quick line = %v", lines[0])
	}
	if lines[1]["level"] != "WARN" || lines[1]["operation"] != "slow" {
		t.Errorf("slow line = %v", lines[1])
	}
}

func TestTrieLogsEvents(t *testing.T) {
	var buf bytes.Buffer
	var tr Trie
	tr.SetLogger(NewWriterLogger(&buf, LogLevelDebug))
	if err := tr.Build(slices.Values(fruit), Config{}); err != nil {
		t.Fatal(err)
	}
	data, _ := tr.MarshalBinary()
	if err := tr.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}

	var ops []interface{}
	for _, line := range decodeLines(t, &buf) {
		ops = append(ops, line["operation"])
	}
	if !slices.Contains(ops, "build") || !slices.Contains(ops, "load") {
		t.Errorf("logged operations %v, want build and load", ops)
	}
}
