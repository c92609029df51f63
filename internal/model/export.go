package model

import "time"

// PaperExport is the top-level JSON structure for a question bank export.
type PaperExport struct {
	ExportedAt time.Time     `json:"exported_at"`
	Subject    string        `json:"subject,omitempty"`
	NumPapers  int           `json:"num_papers"`
	Papers     []PaperRecord `json:"papers"`
}

// PaperRecord holds one stored document and everything extracted from it.
type PaperRecord struct {
	Paper      Paper                `json:"paper"`
	Questions  []ExtractedQuestion  `json:"questions,omitempty"`
	MarkScheme *ExtractedMarkScheme `json:"mark_scheme,omitempty"`
}
