package log

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
)

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := w.Write(map[string]int{"i": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"i": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(dir, "x")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "x-2026-03-01-10.jsonl.zst" {
		t.Fatalf("unexpected first file %s", files[0])
	}

	var got []int
	for _, p := range files {
		err := ReadLines(p, func(line []byte) error {
			var m map[string]int
			if err := json.Unmarshal(line, &m); err != nil {
				return err
			}
			got = append(got, m["i"])
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
	}
	if len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("expected lines 0..3 in order, got %v", got)
	}
}

func TestTurnLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTurnLogger(dir)
	for turn := uint64(1); turn <= 2; turn++ {
		entry := engine.TurnLogEntry{
			Turn:   turn,
			Prices: map[goods.Good]uint32{goods.Coal: 94},
			Digest: "d",
		}
		if err := l.WriteTurn(entry); err != nil {
			t.Fatalf("write turn: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening appends a second zstd frame to the same hour's file.
	l = NewTurnLogger(dir)
	if err := l.WriteTurn(engine.TurnLogEntry{Turn: 3}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	_ = l.Close()

	turns, err := ReadTurns(dir)
	if err != nil {
		t.Fatalf("read turns: %v", err)
	}
	if len(turns) != 3 || turns[0].Turn != 1 || turns[2].Turn != 3 {
		t.Fatalf("expected turns 1..3, got %+v", turns)
	}
	if turns[1].Prices[goods.Coal] != 94 {
		t.Fatalf("expected coal price 94, got %d", turns[1].Prices[goods.Coal])
	}
}

func TestAuditLogger_Writes(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	if err := l.WriteAudit(engine.AuditEntry{Turn: 1, Nation: "A", Action: "ADJUST_RECRUITMENT", Code: "E_CAPACITY"}); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	_ = l.Close()
	files, err := Files(filepath.Join(dir, "audit"), "audit")
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one audit file, got %v %v", files, err)
	}
	var n int
	if err := ReadLines(files[0], func([]byte) error { n++; return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 audit line, got %d", n)
	}
}
