package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"":        Info,
		"WARNING": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestJSONLogger_WritesFieldsAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatJSON, App: "alterations", Output: &buf})

	l.Debug("hidden", nil)
	l.With(map[string]any{"shop_id": "shop-1"}).Info("order created", map[string]any{
		"order_number": 7,
		"":             "dropped",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["message"] != "order created" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
	if entry["app"] != "alterations" || entry["shop_id"] != "shop-1" {
		t.Fatalf("missing base fields: %v", entry)
	}
	if entry["order_number"] != float64(7) {
		t.Fatalf("missing order_number: %v", entry)
	}
	if _, ok := entry[""]; ok {
		t.Fatalf("empty key should be dropped")
	}
}
