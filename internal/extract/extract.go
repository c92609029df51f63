// Package extract turns the raw text of a past paper into structured records.
//
// Document is the entry point. It parses the filename, then either segments a
// question paper into questions or packages a mark scheme. All functions are
// pure: no I/O, no logging, no shared state. Profiles are passed in by the
// caller and may be shared between goroutines.
package extract

import (
	"fmt"

	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/profile"
)

// Outcome names the successful terminal states of Document.
type Outcome string

const (
	OutcomeQuestions  Outcome = "questions_extracted"
	OutcomeMarkScheme Outcome = "mark_scheme_extracted"
)

// Result is a successful extraction.
type Result struct {
	Outcome    Outcome                    `json:"outcome"`
	Filename   string                     `json:"filename"`
	Identity   model.PaperIdentity        `json:"identity"`
	Questions  []model.ExtractedQuestion  `json:"questions,omitempty"`
	MarkScheme *model.ExtractedMarkScheme `json:"mark_scheme,omitempty"`
}

// Document extracts records from the text of one document. p is required for
// question papers and ignored for mark schemes. Any failure is returned as a
// *Rejection and no partial result is produced.
func Document(filename, text string, p *profile.Profile) (Result, error) {
	id, err := paper.Parse(filename)
	if err != nil {
		return Result{}, reject(filename, err)
	}
	canonical, err := paper.Filename(id)
	if err != nil {
		return Result{}, reject(filename, err)
	}

	switch id.PaperType {
	case model.PaperTypeQuestionPaper:
		questions, err := Questions(text, id, p)
		if err != nil {
			return Result{}, reject(canonical, err)
		}
		return Result{
			Outcome:   OutcomeQuestions,
			Filename:  canonical,
			Identity:  id,
			Questions: questions,
		}, nil
	case model.PaperTypeMarkScheme:
		ms := ExtractMarkScheme(text, id)
		return Result{
			Outcome:    OutcomeMarkScheme,
			Filename:   canonical,
			Identity:   id,
			MarkScheme: &ms,
		}, nil
	default:
		return Result{}, reject(canonical, fmt.Errorf("%w: %s", ErrUnsupportedType, id.PaperType))
	}
}

// Questions segments question-paper text and extracts every chunk.
func Questions(text string, id model.PaperIdentity, p *profile.Profile) ([]model.ExtractedQuestion, error) {
	if p == nil {
		return nil, fmt.Errorf("%w for %s", ErrMissingProfile, profile.Key(id.SubjectCode, id.PaperType))
	}
	if p.SubjectCode() != id.SubjectCode || p.PaperType() != id.PaperType {
		return nil, fmt.Errorf("%w: profile %s does not apply to %s", ErrMissingProfile, p.Key(), profile.Key(id.SubjectCode, id.PaperType))
	}

	seg, err := Segment(text, p)
	if err != nil {
		return nil, err
	}

	questions := make([]model.ExtractedQuestion, 0, len(seg.Chunks))
	for i, c := range seg.Chunks {
		q, err := ExtractQuestion(c, i, id, p)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}
