package extract

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/pavelanni/paperbank/internal/profile"
)

// Chunk is one question's slice of the cleaned text: the matched boundary
// marker followed by everything up to the next marker.
type Chunk struct {
	Marker string `json:"marker"`
	Body   string `json:"body"`
}

// Segmentation is the result of splitting cleaned text into question chunks.
type Segmentation struct {
	Cleaned  string  `json:"-"`
	Preamble string  `json:"preamble"`
	Pattern  int     `json:"pattern"` // 0 for the primary delimiter, i+1 for alternative i
	Chunks   []Chunk `json:"chunks"`
}

// Text reassembles the preamble and all chunks. It always equals Cleaned.
func (s Segmentation) Text() string {
	var sb strings.Builder
	sb.Grow(len(s.Cleaned))
	sb.WriteString(s.Preamble)
	for _, c := range s.Chunks {
		sb.WriteString(c.Marker)
		sb.WriteString(c.Body)
	}
	return sb.String()
}

// StripNoise removes every noise pattern of p from raw.
func StripNoise(raw string, p *profile.Profile) (string, error) {
	text := raw
	for _, re := range p.Noise() {
		out, err := re.Replace(text, "", -1, -1)
		if err != nil {
			return "", fmt.Errorf("strip noise: %w", matchFailed(re, err))
		}
		text = out
	}
	return text, nil
}

// Segment strips noise from raw and splits the result at question boundaries.
// Each boundary match is kept as the Marker of the chunk that follows it. The
// primary delimiter is tried first, then each alternative, and the first
// pattern yielding at least two boundaries wins.
func Segment(raw string, p *profile.Profile) (Segmentation, error) {
	cleaned, err := StripNoise(raw, p)
	if err != nil {
		return Segmentation{}, err
	}

	delimiters := p.Delimiters()
	for i, re := range delimiters {
		spans, err := matchSpans(re, cleaned)
		if err != nil {
			return Segmentation{}, fmt.Errorf("match delimiter %d: %w", i, err)
		}
		if len(spans) < 2 {
			continue
		}
		return split(cleaned, spans, i), nil
	}
	return Segmentation{}, fmt.Errorf("%w: %d patterns tried", ErrNoPatternMatch, len(delimiters))
}

// span is a [start, end) byte range in the cleaned text.
type span struct {
	start, end int
}

// matchSpans returns every match of re in text as byte offsets. regexp2
// reports positions in runes, so they are translated through a rune index.
func matchSpans(re *regexp2.Regexp, text string) ([]span, error) {
	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, matchFailed(re, err)
	}
	if m == nil {
		return nil, nil
	}

	offsets := runeOffsets(text)
	var spans []span
	for m != nil {
		spans = append(spans, span{
			start: offsets[m.Index],
			end:   offsets[m.Index+m.Length],
		})
		if m, err = re.FindNextMatch(m); err != nil {
			return nil, matchFailed(re, err)
		}
	}
	return spans, nil
}

// runeOffsets maps rune index i to its byte offset; the final entry is len(s).
// Invalid UTF-8 bytes count as one rune each, as they do in []rune(s).
func runeOffsets(s string) []int {
	offsets := make([]int, 0, len(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}

func split(cleaned string, spans []span, pattern int) Segmentation {
	seg := Segmentation{
		Cleaned:  cleaned,
		Preamble: cleaned[:spans[0].start],
		Pattern:  pattern,
		Chunks:   make([]Chunk, 0, len(spans)),
	}
	for i, sp := range spans {
		bodyEnd := len(cleaned)
		if i+1 < len(spans) {
			bodyEnd = spans[i+1].start
		}
		seg.Chunks = append(seg.Chunks, Chunk{
			Marker: cleaned[sp.start:sp.end],
			Body:   cleaned[sp.end:bodyEnd],
		})
	}
	return seg
}
