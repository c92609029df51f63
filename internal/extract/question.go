package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/profile"
)

// annotation is a marks annotation found in a question body, positioned in runes.
type annotation struct {
	index int
	marks int
}

// ExtractQuestion turns one chunk into a question record. orderIndex is the
// chunk's zero-based position, used as the question number when the marker
// carries no usable digits.
func ExtractQuestion(c Chunk, orderIndex int, id model.PaperIdentity, p *profile.Profile) (model.ExtractedQuestion, error) {
	source, err := paper.Filename(id)
	if err != nil {
		return model.ExtractedQuestion{}, fmt.Errorf("render source filename: %w", err)
	}

	q := model.ExtractedQuestion{
		Text:        strings.TrimSpace(c.Body),
		SourcePaper: source,
		PaperNumber: id.PaperNumber,
		Year:        id.Year,
		Session:     id.Session,
		Subparts:    []model.Subpart{},
	}

	if n, ok := questionNumber(c.Marker, p.MaxQuestionDigits()); ok {
		q.QuestionNumber = n
	} else {
		q.QuestionNumber = orderIndex + 1
		q.NumberInferred = true
	}

	marksRe, marksGroup := p.Marks()
	annotations, err := findAnnotations(marksRe, marksGroup, c.Body)
	if err != nil {
		return model.ExtractedQuestion{}, fmt.Errorf("question %d: match marks: %w", q.QuestionNumber, err)
	}

	subparts, err := findSubparts(p, c.Body, annotations)
	if err != nil {
		return model.ExtractedQuestion{}, fmt.Errorf("question %d: match subparts: %w", q.QuestionNumber, err)
	}

	switch {
	case len(subparts) > 0:
		q.Subparts = subparts
		for _, sp := range subparts {
			q.MaxMarks += sp.Marks
		}
	case len(annotations) > 0:
		q.MaxMarks = annotations[len(annotations)-1].marks
	}
	if q.MaxMarks <= 0 {
		return model.ExtractedQuestion{}, fmt.Errorf("%w: question %d", ErrMissingMarks, q.QuestionNumber)
	}

	q.HasDiagram = hasDiagram(c.Body, p.DiagramIndicators())
	q.Difficulty = p.Bucket(q.MaxMarks)
	return q, nil
}

// questionNumber reads the first run of digits in marker. Runs wider than
// maxDigits are not treated as question numbers.
func questionNumber(marker string, maxDigits int) (int, bool) {
	start := strings.IndexAny(marker, "0123456789")
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(marker) && marker[end] >= '0' && marker[end] <= '9' {
		end++
	}
	digits := marker[start:end]
	if len(digits) > maxDigits {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func findAnnotations(re *regexp2.Regexp, group int, body string) ([]annotation, error) {
	var found []annotation
	m, err := re.FindStringMatch(body)
	for m != nil && err == nil {
		g := m.GroupByNumber(group)
		if g != nil && g.Length > 0 {
			if n, convErr := strconv.Atoi(strings.TrimSpace(g.String())); convErr == nil {
				found = append(found, annotation{index: m.Index, marks: n})
			}
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, matchFailed(re, err)
	}
	return found, nil
}

// findSubparts pairs each subpart label with the first marks annotation that
// follows it and precedes the next label. Labels with no annotation in that
// range are dropped.
func findSubparts(p *profile.Profile, body string, annotations []annotation) ([]model.Subpart, error) {
	re, group := p.Subpart()

	type label struct {
		text        string
		start, from int // marker start, first rune after the marker
		to          int // next marker start, or -1
	}
	var labels []label
	m, err := re.FindStringMatch(body)
	for m != nil && err == nil {
		text := m.String()
		if g := m.GroupByNumber(group); g != nil && g.Length > 0 {
			text = g.String()
		}
		labels = append(labels, label{text: text, start: m.Index, from: m.Index + m.Length})
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, matchFailed(re, err)
	}

	var subparts []model.Subpart
	for i := range labels {
		labels[i].to = -1
		if i+1 < len(labels) {
			labels[i].to = labels[i+1].start
		}
		for _, a := range annotations {
			if a.index < labels[i].from {
				continue
			}
			if labels[i].to >= 0 && a.index >= labels[i].to {
				break
			}
			subparts = append(subparts, model.Subpart{Label: labels[i].text, Marks: a.marks})
			break
		}
	}
	return subparts, nil
}

func hasDiagram(body string, indicators []string) bool {
	lower := strings.ToLower(body)
	for _, kw := range indicators {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
