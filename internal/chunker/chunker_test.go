package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "This is a short paragraph. It fits in one chunk."
	chunks := Split(text, 1800)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk altered: %q", chunks[0])
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if got := Split("", 1800); got != nil {
		t.Errorf("expected nil for empty text, got %v", got)
	}
	if got := Split("   \n\t ", 1800); got != nil {
		t.Errorf("expected nil for blank text, got %v", got)
	}
}

func TestSplit_InvalidBudget(t *testing.T) {
	if got := Split("hello", 0); got != nil {
		t.Errorf("expected nil for zero budget, got %v", got)
	}
}

func TestSplit_RespectsBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Every sentence here has a reasonable length for packing. ")
	}
	chunks := Split(b.String(), 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d exceeds budget: %d bytes", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplit_PreservesOrder(t *testing.T) {
	text := "Alpha comes first. Bravo comes second. Charlie comes third. " +
		"Delta comes fourth. Echo comes fifth. Foxtrot comes last."
	chunks := Split(text, 45)
	joined := strings.Join(chunks, " ")
	for _, word := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"} {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost during split", word)
		}
	}
	if strings.Index(joined, "Alpha") > strings.Index(joined, "Foxtrot") {
		t.Error("chunk order not preserved")
	}
}

func TestSplit_OversizedSentenceHardSplit(t *testing.T) {
	long := strings.Repeat("x", 500)
	chunks := Split(long, 100)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds budget: %d bytes", i, len(c))
		}
	}
}

func TestSplit_RuneBoundarySafety(t *testing.T) {
	long := strings.Repeat("中文内容测试", 100)
	chunks := Split(long, 50)
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d contains a torn rune", i)
		}
		if len(c) > 50 {
			t.Errorf("chunk %d exceeds budget: %d bytes", i, len(c))
		}
	}
	if strings.Join(chunks, "") != long {
		t.Error("content lost or altered during fixed split")
	}
}

func TestSplitFixed_SingleOversizedRune(t *testing.T) {
	// A rune wider than the budget must still be emitted, not looped on.
	chunks := splitFixed("中中", 1)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c != "中" {
			t.Errorf("unexpected chunk %q", c)
		}
	}
}
