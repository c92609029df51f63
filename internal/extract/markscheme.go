package extract

import (
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
)

// MatchingFilename returns the companion filename of id under target, e.g.
// the mark scheme of a question paper. The second result is false when no
// mapping exists.
func MatchingFilename(id model.PaperIdentity, target model.PaperType) (string, bool) {
	name, err := paper.Reconstruct(id, target)
	if err != nil {
		return "", false
	}
	return name, true
}

// ExtractMarkScheme attaches identity metadata to raw mark-scheme text. The
// text itself is stored as-is.
func ExtractMarkScheme(raw string, id model.PaperIdentity) model.ExtractedMarkScheme {
	source, _ := paper.Filename(id)
	linked, _ := MatchingFilename(id, model.PaperTypeQuestionPaper)
	return model.ExtractedMarkScheme{
		SourcePaper:         source,
		RawText:             raw,
		LinkedQuestionPaper: linked,
		PaperNumber:         id.PaperNumber,
		Year:                id.Year,
		Session:             id.Session,
	}
}
