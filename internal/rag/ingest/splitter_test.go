package ingest

import (
	"errors"
	"strings"
	"testing"
)

func buildLines(count int, width int) string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = strings.Repeat(string(rune('a'+i%26)), width)
	}
	return strings.Join(lines, "\n")
}

func checkChunkInvariants(t *testing.T, s Splitter, text string) {
	t.Helper()
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected chunks")
	}

	for i, c := range chunks {
		if n := len([]rune(c.Text)); n > s.Size {
			t.Errorf("chunk %d has %d runes, limit %d", i, n, s.Size)
		}
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.Id == "" {
			t.Errorf("chunk %d has no id", i)
		}
		if i == 0 {
			continue
		}
		prev := []rune(chunks[i-1].Text)
		tail := string(prev[len(prev)-s.Overlap:])
		if !strings.HasPrefix(c.Text, tail) {
			t.Errorf("chunk %d does not start with the last %d runes of chunk %d", i, s.Overlap, i-1)
		}
	}
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks, err := NewSplitter().Split("line one\nline two")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "line one\nline two" {
		t.Errorf("Expected a single chunk, got %+v", chunks)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if _, err := NewSplitter().Split(text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Split(%q) error = %v; want ErrEmptyText", text, err)
		}
	}
}

func TestSplit_BoundsAndOverlap(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"many short lines", buildLines(200, 40)},
		{"medium lines", buildLines(30, 333)},
		{"one giant line", strings.Repeat("x", 5000)},
		{"mixed with blank lines", buildLines(10, 900) + "\n\n\n" + buildLines(10, 15)},
		{"multibyte runes", strings.Repeat("żółw ", 700)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkChunkInvariants(t, NewSplitter(), tt.text)
		})
	}
}

func TestSplit_PrefersSeparatorBoundaries(t *testing.T) {
	text := buildLines(4, 400)
	chunks, err := NewSplitter().Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	// two 400-rune lines fit in 1000, later chunks carry a 200-rune tail plus one line
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != strings.Repeat("a", 400)+"\n"+strings.Repeat("b", 400) {
		t.Errorf("first chunk should hold the first two whole lines")
	}
	if chunks[1].Text != strings.Repeat("b", 200)+"\n"+strings.Repeat("c", 400) {
		t.Errorf("second chunk got %q", chunks[1].Text)
	}
	if !strings.HasSuffix(chunks[2].Text, strings.Repeat("d", 400)) {
		t.Errorf("last chunk should end with the last line")
	}
}

func TestSplit_InvalidSettings(t *testing.T) {
	s := Splitter{Size: 100, Overlap: 100, Separator: "\n"}
	if _, err := s.Split("some text"); err == nil {
		t.Error("Expected error when overlap leaves no room")
	}
}
