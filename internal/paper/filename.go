// Package paper decodes and renders the standardized past-paper filename
// convention: {subject}_{session}{yy}_{type}_{paper}[_v{variant}].pdf
package paper

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/paperbank/internal/model"
)

// ErrInvalidFilename is returned when a filename does not follow the convention.
var ErrInvalidFilename = errors.New("invalid paper filename")

var filenameRegex = regexp.MustCompile(`(?i)^([a-z0-9]+)_([smw])(\d{2})_(qp|ms|er)_(\d{1,2})(?:_v(\d{1,2}))?\.pdf$`)

var sessionByCode = map[string]model.Session{
	"s": model.SessionMayJune,
	"m": model.SessionFebMarch,
	"w": model.SessionOctNov,
}

var codeBySession = map[model.Session]string{
	model.SessionMayJune:  "s",
	model.SessionFebMarch: "m",
	model.SessionOctNov:   "w",
}

// Parse decodes a filename such as "9708_s22_qp_22.pdf".
func Parse(filename string) (model.PaperIdentity, error) {
	m := filenameRegex.FindStringSubmatch(filename)
	if m == nil {
		return model.PaperIdentity{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	session := sessionByCode[strings.ToLower(m[2])]
	yy, _ := strconv.Atoi(m[3])
	paperNumber, _ := strconv.Atoi(m[5])
	if paperNumber == 0 {
		return model.PaperIdentity{}, fmt.Errorf("%w: %q: paper number must be positive", ErrInvalidFilename, filename)
	}

	id := model.PaperIdentity{
		SubjectCode: m[1],
		Session:     session,
		Year:        2000 + yy,
		PaperType:   model.PaperType(strings.ToLower(m[4])),
		PaperNumber: paperNumber,
	}
	if m[6] != "" {
		v, _ := strconv.Atoi(m[6])
		if v == 0 {
			return model.PaperIdentity{}, fmt.Errorf("%w: %q: variant must be positive", ErrInvalidFilename, filename)
		}
		id.Variant = v
	}
	return id, nil
}

// Reconstruct renders the canonical filename of id with its paper type
// replaced by asType. Subject, session, year, paper number and variant are kept.
func Reconstruct(id model.PaperIdentity, asType model.PaperType) (string, error) {
	sessionCode, ok := codeBySession[id.Session]
	if !ok {
		return "", fmt.Errorf("unknown session %q", id.Session)
	}
	if !asType.Valid() {
		return "", fmt.Errorf("unknown paper type %q", asType)
	}
	if id.SubjectCode == "" {
		return "", errors.New("empty subject code")
	}
	if id.Year < 2000 || id.Year > 2099 {
		return "", fmt.Errorf("year %d outside 2000-2099", id.Year)
	}
	if id.PaperNumber < 1 || id.PaperNumber > 99 {
		return "", fmt.Errorf("paper number %d outside 1-99", id.PaperNumber)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s_%s%02d_%s_%02d", id.SubjectCode, sessionCode, id.Year%100, asType, id.PaperNumber)
	if id.HasVariant() {
		fmt.Fprintf(&sb, "_v%d", id.Variant)
	}
	sb.WriteString(".pdf")
	return sb.String(), nil
}

// Filename renders id under its own paper type.
func Filename(id model.PaperIdentity) (string, error) {
	return Reconstruct(id, id.PaperType)
}

// Normalize parses and re-renders a filename, lower-casing the codes and
// zero-padding the paper number.
func Normalize(filename string) (string, error) {
	id, err := Parse(filename)
	if err != nil {
		return "", err
	}
	return Filename(id)
}
