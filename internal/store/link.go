package store

import (
	"fmt"

	"github.com/pavelanni/paperbank/internal/extract"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
)

// MarkSchemeFor returns the stored mark scheme that belongs to a question
// paper, or nil if it has not been imported.
func (s *Store) MarkSchemeFor(questionPaper string) (*model.ExtractedMarkScheme, error) {
	id, err := paper.Parse(questionPaper)
	if err != nil {
		return nil, err
	}
	name, ok := extract.MatchingFilename(id, model.PaperTypeMarkScheme)
	if !ok {
		return nil, fmt.Errorf("no mark scheme mapping for %s", questionPaper)
	}
	return s.GetMarkScheme(name)
}
