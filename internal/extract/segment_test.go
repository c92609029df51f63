package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestSegmentRejectsFalsePositives(t *testing.T) {
	p := economicsProfile(t)

	seg, err := Segment(samplePaper, p)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if seg.Pattern != 0 {
		t.Errorf("expected primary pattern, got %d", seg.Pattern)
	}
	if len(seg.Chunks) != 4 {
		for i, c := range seg.Chunks {
			t.Logf("chunk %d: %q", i, c.Marker+c.Body)
		}
		t.Fatalf("expected 4 chunks, got %d", len(seg.Chunks))
	}

	prefixes := []string{
		"1 Economic growth",
		"2 (a) With the help",
		"3 (a) With the help",
		"4 (a) An economy moves",
	}
	for i, prefix := range prefixes {
		got := seg.Chunks[i].Marker + seg.Chunks[i].Body
		if !strings.HasPrefix(got, prefix) {
			t.Errorf("chunk %d starts %q, want prefix %q", i, got[:min(len(got), 30)], prefix)
		}
	}
	if !strings.Contains(seg.Preamble, "1 hour 30 minutes") {
		t.Error("preamble should keep the duration line")
	}
	if !strings.Contains(seg.Chunks[0].Body, "12 Inflation") {
		t.Error("table data should stay inside question 1")
	}
}

func TestSegmentCompleteness(t *testing.T) {
	p := economicsProfile(t)

	inputs := map[string]string{
		"sample paper":      samplePaper,
		"crlf line endings": strings.ReplaceAll(samplePaper, "\n", "\r\n"),
		"non-ascii":         "Intro – ünïcode\n1 Explain “demand”. [4]\n2 Explain supply — briefly. [4]\n",
		"invalid utf8":      "Intro \xff\xfe\n1 Explain demand. [4]\n2 Explain \xc3 supply. [4]\n",
		"own-line numbers":  "Intro\n1\nExplain demand. [4]\n2\n(a) Define supply. [2]\n",
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			cleaned, err := StripNoise(raw, p)
			if err != nil {
				t.Fatalf("StripNoise: %v", err)
			}
			seg, err := Segment(raw, p)
			if err != nil {
				t.Fatalf("Segment: %v", err)
			}
			if seg.Cleaned != cleaned {
				t.Error("Segmentation.Cleaned differs from StripNoise output")
			}
			if got := seg.Text(); got != cleaned {
				t.Errorf("reassembled text differs from cleaned text\n got: %q\nwant: %q", got, cleaned)
			}
		})
	}
}

func TestSegmentUsesAlternatives(t *testing.T) {
	p := economicsProfile(t)

	tests := []struct {
		name        string
		text        string
		wantPattern int
		wantMarkers []string
	}{
		{
			name:        "number on its own line",
			text:        "Answer all questions.\n1\nExplain demand. [4]\n2\n(a) Define supply. [2]\n(b) Explain. [6]\n",
			wantPattern: 1,
			wantMarkers: []string{"1", "2"},
		},
		{
			name:        "question keyword",
			text:        "Answer all questions.\nQuestion 1: explain demand. [4]\nQuestion 2. explain supply. [4]\n",
			wantPattern: 2,
			wantMarkers: []string{"Question 1: ", "Question 2. "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := Segment(tt.text, p)
			if err != nil {
				t.Fatalf("Segment: %v", err)
			}
			if seg.Pattern != tt.wantPattern {
				t.Errorf("pattern = %d, want %d", seg.Pattern, tt.wantPattern)
			}
			if len(seg.Chunks) != len(tt.wantMarkers) {
				t.Fatalf("expected %d chunks, got %d", len(tt.wantMarkers), len(seg.Chunks))
			}
			for i, want := range tt.wantMarkers {
				if seg.Chunks[i].Marker != want {
					t.Errorf("chunk %d marker = %q, want %q", i, seg.Chunks[i].Marker, want)
				}
			}
		})
	}
}

func TestSegmentNoMatch(t *testing.T) {
	p := economicsProfile(t)

	for _, text := range []string{
		"",
		"No numbered questions here.",
		"1 hour 30 minutes\n2015 2016 2017\n",
		"© UCLES 2022\n1 Explain demand. [4]\n",
	} {
		seg, err := Segment(text, p)
		if !errors.Is(err, ErrNoPatternMatch) {
			t.Errorf("Segment(%q) error = %v, want ErrNoPatternMatch", text, err)
		}
		if len(seg.Chunks) != 0 {
			t.Errorf("Segment(%q) returned chunks on failure", text)
		}
	}
}

func TestStripNoise(t *testing.T) {
	p := economicsProfile(t)

	raw := "* 0123456789 *\nQuestion text\n© UCLES 2022 9708/22/M/J/22 [Turn over\nBLANK PAGE\nmore text"
	got, err := StripNoise(raw, p)
	if err != nil {
		t.Fatalf("StripNoise: %v", err)
	}
	for _, noise := range []string{"UCLES", "9708/22/M/J/22", "Turn over", "BLANK PAGE", "0123456789"} {
		if strings.Contains(got, noise) {
			t.Errorf("noise %q survived: %q", noise, got)
		}
	}
	for _, keep := range []string{"Question text", "more text"} {
		if !strings.Contains(got, keep) {
			t.Errorf("content %q was stripped: %q", keep, got)
		}
	}
}
