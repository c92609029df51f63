package extract

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/pavelanni/paperbank/internal/paper"
)

var (
	// ErrNoPatternMatch means every delimiter pattern produced fewer than two boundaries.
	ErrNoPatternMatch = errors.New("no question boundaries matched")
	// ErrMissingMarks means a question had neither subpart nor top-level marks.
	ErrMissingMarks = errors.New("no marks annotation found")
	// ErrUnsupportedType is returned for examiner reports and unknown paper types.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrMissingProfile means no usable extraction profile was supplied.
	ErrMissingProfile = errors.New("no extraction profile")
	// ErrPatternTimeout means a profile pattern ran past its match timeout.
	ErrPatternTimeout = errors.New("pattern match timed out")
)

// Kind classifies why a document was rejected.
type Kind string

const (
	KindInvalidFilename Kind = "invalid_filename"
	KindUnsupportedType Kind = "unsupported_type"
	KindNoPatternMatch  Kind = "no_pattern_match"
	KindMissingMarks    Kind = "missing_marks"
	KindMissingProfile  Kind = "missing_profile"
	KindPatternTimeout  Kind = "pattern_timeout"
	KindInternal        Kind = "internal"
)

// Rejection is the error returned by Document. It wraps the underlying cause,
// so errors.Is works against the sentinel errors of this package and of
// package paper.
type Rejection struct {
	Kind     Kind
	Filename string
	Err      error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("reject %s (%s): %v", r.Filename, r.Kind, r.Err)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(filename string, err error) *Rejection {
	return &Rejection{Kind: classify(err), Filename: filename, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, paper.ErrInvalidFilename):
		return KindInvalidFilename
	case errors.Is(err, ErrUnsupportedType):
		return KindUnsupportedType
	case errors.Is(err, ErrNoPatternMatch):
		return KindNoPatternMatch
	case errors.Is(err, ErrMissingMarks):
		return KindMissingMarks
	case errors.Is(err, ErrMissingProfile):
		return KindMissingProfile
	case errors.Is(err, ErrPatternTimeout):
		return KindPatternTimeout
	default:
		return KindInternal
	}
}

// KindOf reports the rejection kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return "", false
}

// matchFailed converts an error from a regexp2 search. The engine only fails a
// search when it runs past the pattern's MatchTimeout, and its message quotes
// the whole input, so only the pattern is kept.
func matchFailed(re *regexp2.Regexp, _ error) error {
	return fmt.Errorf("%w after %v: %q", ErrPatternTimeout, re.MatchTimeout, re.String())
}
