package store

import (
	"fmt"

	"github.com/pavelanni/paperbank/internal/model"
)

// ExportPapers builds export-ready records for every stored paper of a
// subject. An empty subject exports everything.
func (s *Store) ExportPapers(subjectCode string) ([]model.PaperRecord, error) {
	papers, err := s.ListPapers(model.PaperFilter{SubjectCode: subjectCode})
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}

	var records []model.PaperRecord
	for _, p := range papers {
		rec := model.PaperRecord{Paper: p}

		switch p.Identity.PaperType {
		case model.PaperTypeQuestionPaper:
			stored, err := s.ListQuestions(p.Filename)
			if err != nil {
				return nil, fmt.Errorf("list questions of %s: %w", p.Filename, err)
			}
			for _, q := range stored {
				rec.Questions = append(rec.Questions, q.ExtractedQuestion)
			}
		case model.PaperTypeMarkScheme:
			ms, err := s.GetMarkScheme(p.Filename)
			if err != nil {
				return nil, fmt.Errorf("get mark scheme %s: %w", p.Filename, err)
			}
			rec.MarkScheme = ms
		}

		records = append(records, rec)
	}

	return records, nil
}
