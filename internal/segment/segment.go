package segment

import (
	"strings"
	"unicode/utf8"
)

// Default chunk bounds, in runes. Rune counts keep CJK text from being
// split mid-character.
const (
	DefaultMinSize    = 500
	DefaultMaxSize    = 800
	DefaultHardLimit  = 1000
	DefaultDelimiters = "。！？．.!?;；"
)

// Config controls how text is split into chunks.
type Config struct {
	// MinSize is the aggregation target: lines are merged into one chunk
	// until adding the next line would push it past MinSize.
	MinSize int

	// MaxSize is the threshold above which a single line is split at
	// sentence delimiters instead of being emitted whole.
	MaxSize int

	// HardLimit is the absolute ceiling for any chunk. Fragments without
	// usable punctuation are force-split at this many runes.
	HardLimit int

	// Delimiters holds the sentence-ending runes used when splitting
	// oversized lines. The delimiter stays attached to the left fragment.
	Delimiters string

	// StripMarkup renders the text through a Markdown pass first, dropping
	// heading markers, emphasis asterisks, code fences and link targets.
	StripMarkup bool
}

// Segmenter splits text according to its Config. It performs no I/O and is
// safe for concurrent use.
type Segmenter struct {
	cfg    Config
	delims map[rune]bool
}

// New creates a Segmenter, filling in defaults for zero values and raising
// MaxSize/HardLimit if needed so that MinSize <= MaxSize <= HardLimit.
func New(cfg Config) *Segmenter {
	if cfg.MinSize <= 0 {
		cfg.MinSize = DefaultMinSize
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.HardLimit <= 0 {
		cfg.HardLimit = DefaultHardLimit
	}
	if cfg.MaxSize < cfg.MinSize {
		cfg.MaxSize = cfg.MinSize
	}
	if cfg.HardLimit < cfg.MaxSize {
		cfg.HardLimit = cfg.MaxSize
	}
	if cfg.Delimiters == "" {
		cfg.Delimiters = DefaultDelimiters
	}

	delims := make(map[rune]bool, len(cfg.Delimiters))
	for _, r := range cfg.Delimiters {
		delims[r] = true
	}

	return &Segmenter{cfg: cfg, delims: delims}
}

// Split turns text into an ordered slice of chunks. All-whitespace input
// yields an empty slice. No chunk exceeds HardLimit runes.
func (s *Segmenter) Split(text string) []string {
	if s.cfg.StripMarkup {
		text = extractPlainText(text)
		text = strings.ReplaceAll(text, "#", "")
		text = strings.ReplaceAll(text, "*", "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		n := utf8.RuneCountInString(line)
		if n > s.cfg.MaxSize {
			flush()
			chunks = append(chunks, s.splitOversize(line)...)
			continue
		}

		if bufLen > 0 && bufLen+1+n > s.cfg.MinSize {
			flush()
		}
		if bufLen > 0 {
			buf.WriteByte('\n')
			bufLen++
		}
		buf.WriteString(line)
		bufLen += n
	}
	flush()

	return chunks
}

// splitOversize breaks one line at sentence delimiters, force-splits any
// fragment still past HardLimit, then greedily re-merges fragments up to
// MinSize so a long paragraph does not degrade into per-sentence chunks.
func (s *Segmenter) splitOversize(line string) []string {
	var frags []string
	for _, frag := range s.splitAfterDelimiters(line) {
		frags = append(frags, forceSplit(frag, s.cfg.HardLimit)...)
	}

	var out []string
	var buf strings.Builder
	bufLen := 0
	for _, frag := range frags {
		n := utf8.RuneCountInString(frag)
		if bufLen > 0 && bufLen+n > s.cfg.MinSize {
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
			bufLen = 0
		}
		buf.WriteString(frag)
		bufLen += n
	}
	if bufLen > 0 {
		out = append(out, strings.TrimSpace(buf.String()))
	}
	return out
}

// splitAfterDelimiters cuts text after every delimiter rune, keeping the
// delimiter on the left fragment. Fragment spacing is preserved so merged
// fragments reproduce the original text.
func (s *Segmenter) splitAfterDelimiters(text string) []string {
	var frags []string
	var buf strings.Builder
	for _, r := range text {
		buf.WriteRune(r)
		if s.delims[r] {
			frags = append(frags, buf.String())
			buf.Reset()
		}
	}
	if buf.Len() > 0 {
		frags = append(frags, buf.String())
	}
	return frags
}

// forceSplit chops text into pieces of at most limit runes.
func forceSplit(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var out []string
	runes := []rune(text)
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
