package paper

import (
	"errors"
	"testing"

	"github.com/pavelanni/paperbank/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     model.PaperIdentity
	}{
		{"may june qp", "9708_s22_qp_22.pdf", model.PaperIdentity{
			SubjectCode: "9708", Session: model.SessionMayJune, Year: 2022,
			PaperType: model.PaperTypeQuestionPaper, PaperNumber: 22,
		}},
		{"feb march ms", "9708_m23_ms_12.pdf", model.PaperIdentity{
			SubjectCode: "9708", Session: model.SessionFebMarch, Year: 2023,
			PaperType: model.PaperTypeMarkScheme, PaperNumber: 12,
		}},
		{"oct nov with variant", "9708_w21_qp_32_v2.pdf", model.PaperIdentity{
			SubjectCode: "9708", Session: model.SessionOctNov, Year: 2021,
			PaperType: model.PaperTypeQuestionPaper, PaperNumber: 32, Variant: 2,
		}},
		{"examiner report", "0455_s19_er_01.pdf", model.PaperIdentity{
			SubjectCode: "0455", Session: model.SessionMayJune, Year: 2019,
			PaperType: model.PaperTypeExaminerReport, PaperNumber: 1,
		}},
		{"single digit paper", "9708_s22_qp_2.pdf", model.PaperIdentity{
			SubjectCode: "9708", Session: model.SessionMayJune, Year: 2022,
			PaperType: model.PaperTypeQuestionPaper, PaperNumber: 2,
		}},
		{"upper case codes", "9708_S22_QP_22.PDF", model.PaperIdentity{
			SubjectCode: "9708", Session: model.SessionMayJune, Year: 2022,
			PaperType: model.PaperTypeQuestionPaper, PaperNumber: 22,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.filename)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.filename, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"empty", ""},
		{"missing extension", "9708_s22_qp_22"},
		{"wrong extension", "9708_s22_qp_22.docx"},
		{"unknown session", "9708_x22_qp_22.pdf"},
		{"unknown type", "9708_s22_in_22.pdf"},
		{"missing paper number", "9708_s22_qp.pdf"},
		{"three digit year", "9708_s122_qp_22.pdf"},
		{"zero paper", "9708_s22_qp_00.pdf"},
		{"zero variant", "9708_s22_qp_22_v0.pdf"},
		{"trailing junk", "9708_s22_qp_22_final.pdf"},
		{"directory prefix", "papers/9708_s22_qp_22.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename)
			if !errors.Is(err, ErrInvalidFilename) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidFilename", tt.filename, err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9708_s22_qp_22.pdf", "9708_s22_qp_22.pdf"},
		{"9708_w21_qp_32_v2.pdf", "9708_w21_qp_32_v2.pdf"},
		{"9708_m23_ms_12.pdf", "9708_m23_ms_12.pdf"},
		{"9708_s22_qp_2.pdf", "9708_s22_qp_02.pdf"},
		{"9708_S22_QP_22.PDF", "9708_s22_qp_22.pdf"},
		{"0455_s05_er_1_v1.pdf", "0455_s05_er_01_v1.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got, err := Filename(id)
			if err != nil {
				t.Fatalf("Filename: %v", err)
			}
			if got != tt.want {
				t.Errorf("Filename(Parse(%q)) = %q, want %q", tt.in, got, tt.want)
			}
			norm, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if norm != got {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, norm, got)
			}
		})
	}
}

func TestReconstructAsType(t *testing.T) {
	id, err := Parse("9708_w21_qp_32_v2.pdf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := Reconstruct(id, model.PaperTypeMarkScheme)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if got != "9708_w21_ms_32_v2.pdf" {
		t.Errorf("Reconstruct() = %q, want 9708_w21_ms_32_v2.pdf", got)
	}
	if id.PaperType != model.PaperTypeQuestionPaper {
		t.Errorf("Reconstruct mutated identity: %q", id.PaperType)
	}
}

func TestReconstructRejectsBadIdentity(t *testing.T) {
	good := model.PaperIdentity{
		SubjectCode: "9708", Session: model.SessionMayJune, Year: 2022,
		PaperType: model.PaperTypeQuestionPaper, PaperNumber: 22,
	}

	tests := []struct {
		name   string
		mutate func(*model.PaperIdentity)
		asType model.PaperType
	}{
		{"unknown session", func(id *model.PaperIdentity) { id.Session = "summer" }, model.PaperTypeQuestionPaper},
		{"unknown type", func(id *model.PaperIdentity) {}, model.PaperType("xx")},
		{"empty subject", func(id *model.PaperIdentity) { id.SubjectCode = "" }, model.PaperTypeQuestionPaper},
		{"old year", func(id *model.PaperIdentity) { id.Year = 1999 }, model.PaperTypeQuestionPaper},
		{"paper number too large", func(id *model.PaperIdentity) { id.PaperNumber = 100 }, model.PaperTypeQuestionPaper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := good
			tt.mutate(&id)
			if _, err := Reconstruct(id, tt.asType); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
