package extract

import (
	"testing"

	"github.com/pavelanni/paperbank/internal/model"
)

func TestMatchingFilename(t *testing.T) {
	tests := []struct {
		from   string
		target model.PaperType
		want   string
	}{
		{"9708_s22_qp_22.pdf", model.PaperTypeMarkScheme, "9708_s22_ms_22.pdf"},
		{"9708_s22_ms_22.pdf", model.PaperTypeQuestionPaper, "9708_s22_qp_22.pdf"},
		{"9708_w21_qp_32_v2.pdf", model.PaperTypeMarkScheme, "9708_w21_ms_32_v2.pdf"},
		{"9708_w21_ms_32_v2.pdf", model.PaperTypeQuestionPaper, "9708_w21_qp_32_v2.pdf"},
		{"9708_m23_qp_2.pdf", model.PaperTypeExaminerReport, "9708_m23_er_02.pdf"},
		{"9708_s22_qp_22.pdf", model.PaperTypeQuestionPaper, "9708_s22_qp_22.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+string(tt.target), func(t *testing.T) {
			got, ok := MatchingFilename(mustParse(t, tt.from), tt.target)
			if !ok {
				t.Fatal("expected a mapping")
			}
			if got != tt.want {
				t.Errorf("MatchingFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchingFilenameIsSymmetric(t *testing.T) {
	for _, qp := range []string{"9708_s22_qp_22.pdf", "9708_w21_qp_32_v2.pdf", "0455_m19_qp_12_v3.pdf"} {
		ms, ok := MatchingFilename(mustParse(t, qp), model.PaperTypeMarkScheme)
		if !ok {
			t.Fatalf("no mark scheme mapping for %s", qp)
		}
		back, ok := MatchingFilename(mustParse(t, ms), model.PaperTypeQuestionPaper)
		if !ok {
			t.Fatalf("no question paper mapping for %s", ms)
		}
		if back != qp {
			t.Errorf("%s -> %s -> %s, want round trip", qp, ms, back)
		}
	}
}

func TestMatchingFilenameNoMapping(t *testing.T) {
	id := mustParse(t, "9708_s22_qp_22.pdf")

	if name, ok := MatchingFilename(id, model.PaperType("syllabus")); ok {
		t.Errorf("expected no mapping for unknown type, got %q", name)
	}

	broken := id
	broken.Session = "summer"
	if name, ok := MatchingFilename(broken, model.PaperTypeMarkScheme); ok {
		t.Errorf("expected no mapping for unknown session, got %q", name)
	}
}

func TestExtractMarkScheme(t *testing.T) {
	raw := "Question 2(a)\nUp to 2 marks for a correct definition.\n[8]"
	id := mustParse(t, "9708_s22_ms_22.pdf")

	ms := ExtractMarkScheme(raw, id)
	want := model.ExtractedMarkScheme{
		SourcePaper:         "9708_s22_ms_22.pdf",
		RawText:             raw,
		LinkedQuestionPaper: "9708_s22_qp_22.pdf",
		PaperNumber:         22,
		Year:                2022,
		Session:             model.SessionMayJune,
	}
	if ms != want {
		t.Errorf("ExtractMarkScheme() = %+v, want %+v", ms, want)
	}
}
