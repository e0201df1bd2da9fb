package segment

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_EmptyInput(t *testing.T) {
	s := New(Config{})

	for _, input := range []string{"", "   ", "\n\n\n", " \t \r\n "} {
		chunks := s.Split(input)
		if len(chunks) != 0 {
			t.Errorf("Expected no chunks for %q, got %d", input, len(chunks))
		}
	}
}

func TestSplit_SingleSmallChunk(t *testing.T) {
	s := New(Config{MinSize: 500, MaxSize: 800, HardLimit: 1000})

	chunks := s.Split("Hello\nWorld")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Hello\nWorld" {
		t.Errorf("Expected %q, got %q", "Hello\nWorld", chunks[0])
	}
}

func TestSplit_AggregatesLines(t *testing.T) {
	s := New(Config{MinSize: 500, MaxSize: 800, HardLimit: 1000})

	line := strings.Repeat("a", 200)
	input := strings.Join([]string{line, line, line, line, line}, "\n")

	chunks := s.Split(input)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}

	// Two lines fit under MinSize together, the third overflows.
	want := line + "\n" + line
	if chunks[0] != want {
		t.Errorf("Expected first chunk of two lines, got %d runes", utf8.RuneCountInString(chunks[0]))
	}
	if chunks[2] != line {
		t.Errorf("Expected last chunk of one line, got %d runes", utf8.RuneCountInString(chunks[2]))
	}
}

func TestSplit_BlankLinesSkipped(t *testing.T) {
	s := New(Config{MinSize: 500})

	chunks := s.Split("alpha\n\n\n  \nbeta\n")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "alpha\nbeta" {
		t.Errorf("Expected %q, got %q", "alpha\nbeta", chunks[0])
	}
}

func TestSplit_CRLFNormalized(t *testing.T) {
	s := New(Config{MinSize: 500})

	chunks := s.Split("alpha\r\nbeta")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "alpha\nbeta" {
		t.Errorf("Expected %q, got %q", "alpha\nbeta", chunks[0])
	}
}

func TestSplit_OversizeLineSentenceSplit(t *testing.T) {
	s := New(Config{MinSize: 20, MaxSize: 30, HardLimit: 100})

	chunks := s.Split("First one. Second piece. Third bit.")
	want := []string{"First one.", "Second piece.", "Third bit."}
	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i] != w {
			t.Errorf("Chunk %d: expected %q, got %q", i, w, chunks[i])
		}
	}
}

func TestSplit_OversizeFragmentsRemerged(t *testing.T) {
	s := New(Config{MinSize: 30, MaxSize: 30, HardLimit: 100})

	chunks := s.Split("First one. Second piece. Third bit.")
	want := []string{"First one. Second piece.", "Third bit."}
	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i] != w {
			t.Errorf("Chunk %d: expected %q, got %q", i, w, chunks[i])
		}
	}
}

func TestSplit_CJKDelimiters(t *testing.T) {
	s := New(Config{MinSize: 4, MaxSize: 8, HardLimit: 100})

	chunks := s.Split("你好。世界很大。再见。")
	want := []string{"你好。", "世界很大。", "再见。"}
	if len(chunks) != len(want) {
		t.Fatalf("Expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i] != w {
			t.Errorf("Chunk %d: expected %q, got %q", i, w, chunks[i])
		}
	}
}

func TestSplit_HardLimitForceSplit(t *testing.T) {
	s := New(Config{MinSize: 10, MaxSize: 10, HardLimit: 12})

	// No punctuation anywhere, so only the hard limit can cut it.
	chunks := s.Split(strings.Repeat("字", 30))
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 12 {
			t.Errorf("Chunk %d exceeds hard limit: %d runes", i, n)
		}
	}
	if got := utf8.RuneCountInString(chunks[2]); got != 6 {
		t.Errorf("Expected trailing chunk of 6 runes, got %d", got)
	}
}

func TestSplit_NoChunkExceedsHardLimit(t *testing.T) {
	s := New(Config{MinSize: 50, MaxSize: 80, HardLimit: 100})

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "This is sentence number %d in a very long paragraph without breaks. ", i)
	}

	for i, c := range s.Split(b.String()) {
		if n := utf8.RuneCountInString(c); n > 100 {
			t.Errorf("Chunk %d exceeds hard limit: %d runes", i, n)
		}
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	s := New(Config{MinSize: 13, MaxSize: 800, HardLimit: 1000})

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("line-%d", i))
	}
	input := strings.Join(lines, "\n")

	chunks := s.Split(input)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	if got := strings.Join(chunks, "\n"); got != input {
		t.Errorf("Reassembled text differs from input:\n%q\n%q", got, input)
	}
}

func TestSplit_StripMarkup(t *testing.T) {
	s := New(Config{MinSize: 500, StripMarkup: true})

	input := "# Title\n\nSome *emphasis* and `code` here.\n\n```go\nfunc main() {}\n```\n\nTail text."
	chunks := s.Split(input)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d: %q", len(chunks), chunks)
	}

	want := "Title\nSome emphasis and code here.\nTail text."
	if chunks[0] != want {
		t.Errorf("Expected %q, got %q", want, chunks[0])
	}
}

func TestSplit_StripMarkupKeepsLinkText(t *testing.T) {
	s := New(Config{MinSize: 500, StripMarkup: true})

	chunks := s.Split("See [the docs](https://example.com) for details.")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "See the docs for details." {
		t.Errorf("Expected link text only, got %q", chunks[0])
	}
	if strings.Contains(chunks[0], "example.com") {
		t.Errorf("Expected URL to be dropped, got %q", chunks[0])
	}
}

func TestSplit_StripMarkupRemovesResidualMarkers(t *testing.T) {
	s := New(Config{MinSize: 500, StripMarkup: true})

	// Stray markers that are not valid markdown syntax still go away.
	chunks := s.Split("value ** 2 and #tag")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if strings.ContainsAny(chunks[0], "#*") {
		t.Errorf("Expected markers removed, got %q", chunks[0])
	}
}

func TestSplit_RawModeKeepsMarkers(t *testing.T) {
	s := New(Config{MinSize: 500, StripMarkup: false})

	chunks := s.Split("# heading with *stars*")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "# heading with *stars*" {
		t.Errorf("Expected raw text untouched, got %q", chunks[0])
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})

	if s.cfg.MinSize != DefaultMinSize {
		t.Errorf("Expected MinSize %d, got %d", DefaultMinSize, s.cfg.MinSize)
	}
	if s.cfg.MaxSize != DefaultMaxSize {
		t.Errorf("Expected MaxSize %d, got %d", DefaultMaxSize, s.cfg.MaxSize)
	}
	if s.cfg.HardLimit != DefaultHardLimit {
		t.Errorf("Expected HardLimit %d, got %d", DefaultHardLimit, s.cfg.HardLimit)
	}
	if s.cfg.Delimiters != DefaultDelimiters {
		t.Errorf("Expected default delimiters, got %q", s.cfg.Delimiters)
	}
}

func TestNew_RaisesInvertedBounds(t *testing.T) {
	s := New(Config{MinSize: 100, MaxSize: 50, HardLimit: 10})

	if s.cfg.MaxSize < s.cfg.MinSize {
		t.Errorf("Expected MaxSize raised to MinSize, got %d < %d", s.cfg.MaxSize, s.cfg.MinSize)
	}
	if s.cfg.HardLimit < s.cfg.MaxSize {
		t.Errorf("Expected HardLimit raised to MaxSize, got %d < %d", s.cfg.HardLimit, s.cfg.MaxSize)
	}
}
