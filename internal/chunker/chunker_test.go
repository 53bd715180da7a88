package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	s := New()
	chunks, err := s.Split("", "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("len(chunks) = %d, want 0", len(chunks))
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	s := New(WithSize(100), WithOverlap(20))
	chunks, err := s.Split("short text", "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Text() != "short text" {
		t.Errorf("Text() = %q, want the full input", chunks[0].Text())
	}
	if chunks[0].Position() != 0 {
		t.Errorf("Position() = %d, want 0", chunks[0].Position())
	}
	if chunks[0].Source() != "doc.txt" {
		t.Errorf("Source() = %q, want doc.txt", chunks[0].Source())
	}
}

func TestSplit_SizeAndOverlap(t *testing.T) {
	s := New(WithSize(10), WithOverlap(3))
	text := strings.Repeat("abcdefghij", 5) // 50 chars
	chunks, err := s.Split(text, "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	for i, c := range chunks {
		runes := []rune(c.Text())
		if len(runes) > 10 {
			t.Errorf("chunk %d has %d chars, want <= 10", i, len(runes))
		}
		if c.Position() != i {
			t.Errorf("chunk %d Position() = %d", i, c.Position())
		}
	}

	// Adjacent chunks share exactly the overlap.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text())
		cur := []rune(chunks[i].Text())
		tail := string(prev[len(prev)-3:])
		head := string(cur[:3])
		if tail != head {
			t.Errorf("chunks %d/%d overlap mismatch: tail %q head %q", i-1, i, tail, head)
		}
	}

	// The concatenation minus overlaps reconstructs the input.
	var b strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text())
		if i == 0 {
			b.WriteString(c.Text())
		} else {
			b.WriteString(string(runes[3:]))
		}
	}
	if b.String() != text {
		t.Error("deoverlapped concatenation does not reconstruct the input")
	}
}

func TestSplit_FinalChunkShorter(t *testing.T) {
	s := New(WithSize(10), WithOverlap(2))
	text := strings.Repeat("x", 25)
	chunks, err := s.Split(text, "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	last := []rune(chunks[len(chunks)-1].Text())
	if len(last) >= 10 {
		t.Errorf("final chunk has %d chars, want < 10", len(last))
	}
}

func TestSplit_MultiByte(t *testing.T) {
	s := New(WithSize(4), WithOverlap(1))
	text := "héllo wörld çafé"
	chunks, err := s.Split(text, "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	for i, c := range chunks {
		if !strings.ContainsRune(text, []rune(c.Text())[0]) {
			t.Errorf("chunk %d starts with a rune not in the input", i)
		}
		if len([]rune(c.Text())) > 4 {
			t.Errorf("chunk %d exceeds size", i)
		}
	}
}

func TestNew_ClampsOverlap(t *testing.T) {
	s := New(WithSize(100), WithOverlap(100))
	if s.Overlap() != 25 {
		t.Errorf("Overlap() = %d, want 25", s.Overlap())
	}
}

func TestSplit_UniqueIDs(t *testing.T) {
	s := New(WithSize(5), WithOverlap(1))
	chunks, err := s.Split(strings.Repeat("y", 30), "doc.txt")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.ID()] {
			t.Fatalf("duplicate chunk ID %s", c.ID())
		}
		seen[c.ID()] = true
	}
}
