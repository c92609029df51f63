package model

import "time"

// Session identifies the examination series a paper was sat in.
type Session string

const (
	SessionMayJune  Session = "may_june"
	SessionFebMarch Session = "feb_march"
	SessionOctNov   Session = "oct_nov"
)

// PaperType distinguishes question papers from their companion documents.
type PaperType string

const (
	// PaperTypeQuestionPaper is a question paper ("qp").
	PaperTypeQuestionPaper PaperType = "qp"
	// PaperTypeMarkScheme is a mark scheme ("ms").
	PaperTypeMarkScheme PaperType = "ms"
	// PaperTypeExaminerReport is an examiner report ("er").
	PaperTypeExaminerReport PaperType = "er"
)

// Valid reports whether t is one of the known paper types.
func (t PaperType) Valid() bool {
	switch t {
	case PaperTypeQuestionPaper, PaperTypeMarkScheme, PaperTypeExaminerReport:
		return true
	}
	return false
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PaperIdentity is the decoded form of a standardized paper filename.
type PaperIdentity struct {
	SubjectCode string    `json:"subject_code"`
	Session     Session   `json:"session"`
	Year        int       `json:"year"`
	PaperType   PaperType `json:"paper_type"`
	PaperNumber int       `json:"paper_number"`
	Variant     int       `json:"variant,omitempty"` // 0 means no variant suffix
}

// HasVariant reports whether the filename carries a _v{n} suffix.
func (id PaperIdentity) HasVariant() bool {
	return id.Variant > 0
}

// Subpart is a labelled sub-question such as "(a)".
type Subpart struct {
	Label string `json:"label"`
	Marks int    `json:"marks"`
}

// ExtractedQuestion is one numbered question pulled out of a question paper.
type ExtractedQuestion struct {
	QuestionNumber int        `json:"question_number"`
	NumberInferred bool       `json:"number_inferred,omitempty"` // number came from position, not the marker
	Text           string     `json:"text"`
	MaxMarks       int        `json:"max_marks"`
	Subparts       []Subpart  `json:"subparts"`
	HasDiagram     bool       `json:"has_diagram"`
	Difficulty     Difficulty `json:"difficulty"`
	SourcePaper    string     `json:"source_paper"`
	PaperNumber    int        `json:"paper_number"`
	Year           int        `json:"year"`
	Session        Session    `json:"session"`
}

// ExtractedMarkScheme is mark-scheme text attached to its paper identity.
type ExtractedMarkScheme struct {
	SourcePaper         string  `json:"source_paper"`
	RawText             string  `json:"raw_text"`
	LinkedQuestionPaper string  `json:"linked_question_paper,omitempty"` // empty when no mapping exists
	PaperNumber         int     `json:"paper_number"`
	Year                int     `json:"year"`
	Session             Session `json:"session"`
}

// Paper is a stored document row.
type Paper struct {
	Filename     string        `json:"filename"`
	Identity     PaperIdentity `json:"identity"`
	ContentHash  string        `json:"content_hash"`
	ProfileName  string        `json:"profile_name,omitempty"`
	ProfileVer   int           `json:"profile_version,omitempty"`
	RunID        string        `json:"run_id,omitempty"`
	ImportedAt   time.Time     `json:"imported_at"`
	NumQuestions int           `json:"num_questions"`
}

// StoredQuestion is an extracted question together with its database ID.
type StoredQuestion struct {
	ID int64 `json:"id"`
	ExtractedQuestion
}

// PaperFilter narrows ListPapers results. Zero values mean no filtering.
type PaperFilter struct {
	SubjectCode string
	Year        int
	Session     Session
	PaperType   PaperType
}

// IngestConfig holds runtime ingestion parameters set via CLI flags.
type IngestConfig struct {
	Workers int  // parallel documents; 0 means 1
	Force   bool // re-import files whose content hash is unchanged
}

// RunSummary records the outcome of one ingest run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Imported   int       `json:"imported"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}
