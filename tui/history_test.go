package tui

import "testing"

func TestHistory_Recall(t *testing.T) {
	h := NewHistory(5)
	for _, line := range []string{"1", "ask about the map", "/state"} {
		h.Push(line)
	}

	for _, want := range []string{"/state", "ask about the map", "1", "1"} {
		got, ok := h.Prev()
		if !ok || got != want {
			t.Fatalf("Prev() = %q, %v; want %q", got, ok, want)
		}
	}
	for _, want := range []string{"ask about the map", "/state"} {
		got, ok := h.Next()
		if !ok || got != want {
			t.Fatalf("Next() = %q, %v; want %q", got, ok, want)
		}
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false past the newest line")
	}
	if got, _ := h.Prev(); got != "/state" {
		t.Errorf("expected recall to restart at the newest line, got %q", got)
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	if _, ok := h.Prev(); ok {
		t.Error("expected false on empty history")
	}
	if _, ok := h.Next(); ok {
		t.Error("expected false on empty history")
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	if len(h.lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", h.lines)
	}
	h.Prev()
	if got, _ := h.Prev(); got != "b" {
		t.Errorf("expected the oldest kept line to be b, got %q", got)
	}
}

func TestHistory_NoRepeats(t *testing.T) {
	h := NewHistory(5)
	h.Push("2")
	h.Push("2")
	h.Push("1")
	h.Push("2")
	if len(h.lines) != 3 {
		t.Errorf("expected 3 lines, got %v", h.lines)
	}
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("1")
	h.Push("2")
	h.Prev()
	h.Prev()
	h.ResetCursor()
	if got, _ := h.Prev(); got != "2" {
		t.Errorf("expected the newest line after reset, got %q", got)
	}
}
