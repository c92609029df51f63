// Package profile holds subject extraction profiles: the per-subject pattern
// catalog that drives segmentation and field extraction.
package profile

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/pavelanni/paperbank/internal/model"
)

// DefaultMatchTimeout bounds a single pattern search when a profile does not
// set match_timeout_ms.
const DefaultMatchTimeout = 2 * time.Second

// Thresholds map a question's total marks onto a difficulty bucket.
type Thresholds struct {
	EasyMax   int `json:"easy_max"`
	MediumMax int `json:"medium_max"`
}

// Config is the serialisable form of a profile, as stored in YAML/JSON files.
type Config struct {
	SubjectCode             string          `json:"subject_code"`
	PaperType               model.PaperType `json:"paper_type"`
	Name                    string          `json:"name,omitempty"`
	Version                 int             `json:"version,omitempty"`
	QuestionDelimiter       string          `json:"question_delimiter_pattern"`
	DelimiterAlternatives   []string        `json:"delimiter_alternatives,omitempty"`
	MarksPattern            string          `json:"marks_pattern"`
	SubpartPattern          string          `json:"subpart_pattern"`
	NoisePatterns           []string        `json:"noise_patterns,omitempty"`
	DiagramIndicators       []string        `json:"diagram_indicators,omitempty"`
	MaxQuestionNumberDigits int             `json:"max_question_number_digits"`
	DifficultyThresholds    Thresholds      `json:"difficulty_thresholds"`
	MatchTimeoutMillis      int             `json:"match_timeout_ms,omitempty"`
}

// Profile is a compiled, immutable Config. It is safe to share between goroutines.
type Profile struct {
	cfg          Config
	delimiters   []*regexp2.Regexp // primary first, then alternatives in order
	marks        *regexp2.Regexp
	marksGroup   int
	subpart      *regexp2.Regexp
	subpartGroup int
	noise        []*regexp2.Regexp
}

// Compile validates cfg and compiles all of its patterns.
func Compile(cfg Config) (*Profile, error) {
	if cfg.SubjectCode == "" {
		return nil, errors.New("subject_code is required")
	}
	if !cfg.PaperType.Valid() {
		return nil, fmt.Errorf("unknown paper_type %q", cfg.PaperType)
	}
	if cfg.MaxQuestionNumberDigits < 1 {
		return nil, fmt.Errorf("max_question_number_digits must be at least 1, got %d", cfg.MaxQuestionNumberDigits)
	}
	t := cfg.DifficultyThresholds
	if t.EasyMax < 1 || t.MediumMax < t.EasyMax {
		return nil, fmt.Errorf("difficulty thresholds must satisfy 0 < easy_max <= medium_max, got %d/%d", t.EasyMax, t.MediumMax)
	}

	if cfg.MatchTimeoutMillis < 0 {
		return nil, fmt.Errorf("match_timeout_ms must not be negative, got %d", cfg.MatchTimeoutMillis)
	}
	timeout := DefaultMatchTimeout
	if cfg.MatchTimeoutMillis > 0 {
		timeout = time.Duration(cfg.MatchTimeoutMillis) * time.Millisecond
	}
	compile := func(expr string) (*regexp2.Regexp, error) {
		return compilePattern(expr, timeout)
	}

	p := &Profile{cfg: cloneConfig(cfg)}

	for i, expr := range append([]string{cfg.QuestionDelimiter}, cfg.DelimiterAlternatives...) {
		re, err := compile(expr)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("question_delimiter_pattern: %w", err)
			}
			return nil, fmt.Errorf("delimiter_alternatives[%d]: %w", i-1, err)
		}
		p.delimiters = append(p.delimiters, re)
	}

	var err error
	if p.marks, err = compile(cfg.MarksPattern); err != nil {
		return nil, fmt.Errorf("marks_pattern: %w", err)
	}
	if p.marksGroup, err = captureGroup(p.marks, "marks"); err != nil {
		return nil, fmt.Errorf("marks_pattern: %w", err)
	}
	if p.subpart, err = compile(cfg.SubpartPattern); err != nil {
		return nil, fmt.Errorf("subpart_pattern: %w", err)
	}
	if p.subpartGroup, err = captureGroup(p.subpart, "label"); err != nil {
		return nil, fmt.Errorf("subpart_pattern: %w", err)
	}

	for i, expr := range cfg.NoisePatterns {
		re, err := compile(expr)
		if err != nil {
			return nil, fmt.Errorf("noise_patterns[%d]: %w", i, err)
		}
		p.noise = append(p.noise, re)
	}

	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// built-in profiles.
func MustCompile(cfg Config) *Profile {
	p, err := Compile(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// compilePattern compiles expr for the backtracking engine. Searches that run
// longer than timeout fail with an error instead of blocking the caller.
func compilePattern(expr string, timeout time.Duration) (*regexp2.Regexp, error) {
	if expr == "" {
		return nil, errors.New("empty pattern")
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = timeout
	return re, nil
}

// captureGroup picks the named group if the pattern defines it, otherwise group 1.
func captureGroup(re *regexp2.Regexp, name string) (int, error) {
	numbers := re.GetGroupNumbers()
	if n := re.GroupNumberFromName(name); n > 0 && slices.Contains(numbers, n) {
		return n, nil
	}
	if slices.Contains(numbers, 1) {
		return 1, nil
	}
	return 0, fmt.Errorf("pattern needs a %q group or at least one capturing group", name)
}

func cloneConfig(cfg Config) Config {
	cfg.DelimiterAlternatives = slices.Clone(cfg.DelimiterAlternatives)
	cfg.NoisePatterns = slices.Clone(cfg.NoisePatterns)
	cfg.DiagramIndicators = slices.Clone(cfg.DiagramIndicators)
	return cfg
}

// Key returns the registry key for a subject and paper type.
func Key(subjectCode string, t model.PaperType) string {
	return subjectCode + "/" + string(t)
}

// Key returns the registry key of this profile.
func (p *Profile) Key() string { return Key(p.cfg.SubjectCode, p.cfg.PaperType) }

// Config returns a copy of the profile's source configuration.
func (p *Profile) Config() Config { return cloneConfig(p.cfg) }

func (p *Profile) SubjectCode() string        { return p.cfg.SubjectCode }
func (p *Profile) PaperType() model.PaperType { return p.cfg.PaperType }
func (p *Profile) Name() string               { return p.cfg.Name }
func (p *Profile) Version() int               { return p.cfg.Version }
func (p *Profile) MaxQuestionDigits() int     { return p.cfg.MaxQuestionNumberDigits }

// Delimiters returns the question delimiter patterns in the order they are tried.
func (p *Profile) Delimiters() []*regexp2.Regexp { return slices.Clone(p.delimiters) }

// Noise returns the patterns stripped from raw text before segmentation.
func (p *Profile) Noise() []*regexp2.Regexp { return slices.Clone(p.noise) }

// Marks returns the marks annotation pattern and the group holding the value.
func (p *Profile) Marks() (*regexp2.Regexp, int) { return p.marks, p.marksGroup }

// Subpart returns the subpart label pattern and the group holding the label.
func (p *Profile) Subpart() (*regexp2.Regexp, int) { return p.subpart, p.subpartGroup }

// DiagramIndicators returns the keywords that mark a question as having a diagram.
func (p *Profile) DiagramIndicators() []string { return slices.Clone(p.cfg.DiagramIndicators) }

// Bucket maps total marks to a difficulty using the profile's thresholds.
func (p *Profile) Bucket(maxMarks int) model.Difficulty {
	switch {
	case maxMarks <= p.cfg.DifficultyThresholds.EasyMax:
		return model.DifficultyEasy
	case maxMarks <= p.cfg.DifficultyThresholds.MediumMax:
		return model.DifficultyMedium
	default:
		return model.DifficultyHard
	}
}
