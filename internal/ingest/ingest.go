// Package ingest feeds PDF files through text extraction and the extractor
// into the store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/paperbank/internal/extract"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/pdftext"
	"github.com/pavelanni/paperbank/internal/profile"
	"github.com/pavelanni/paperbank/internal/store"
)

// Failure kinds raised before extraction starts. All other kinds come from
// package extract.
const (
	KindNoText     extract.Kind = "no_text"
	KindUnreadable extract.Kind = "unreadable"
)

// ErrUnreadable wraps text-extraction failures other than pdftext.ErrNoText,
// such as corrupt or encrypted files.
var ErrUnreadable = errors.New("document could not be read")

// TextExtractor turns document bytes into text. *pdftext.Reader and
// pdftext.Reader satisfy it.
type TextExtractor interface {
	Bytes(ctx context.Context, data []byte) (pdftext.Result, error)
}

// Status is what happened to one document.
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
)

// Outcome is the result of ingesting one document.
type Outcome struct {
	Status   Status
	Filename string // canonical filename
	Result   extract.Result
}

// Failure is a document that could not be imported.
type Failure struct {
	Path string
	Kind extract.Kind
	Err  error
}

// Report summarises one Run.
type Report struct {
	RunID    string
	Imported []string
	Skipped  []string
	Failures []Failure
}

// Summary converts the report into the form kept in the store.
func (r Report) Summary(finished time.Time) model.RunSummary {
	return model.RunSummary{
		RunID:      r.RunID,
		FinishedAt: finished,
		Imported:   len(r.Imported),
		Skipped:    len(r.Skipped),
		Failed:     len(r.Failures),
	}
}

// Ingester imports documents into a store.
type Ingester struct {
	store    *store.Store
	profiles *profile.Registry
	text     TextExtractor
	cfg      model.IngestConfig
}

// New creates an Ingester.
func New(s *store.Store, profiles *profile.Registry, text TextExtractor, cfg model.IngestConfig) *Ingester {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Ingester{store: s, profiles: profiles, text: text, cfg: cfg}
}

// Run imports every PDF found under paths. Per-document failures are
// collected in the report; the returned error is reserved for problems that
// stop the whole run.
func (in *Ingester) Run(ctx context.Context, paths []string) (Report, error) {
	files, err := Collect(paths)
	if err != nil {
		return Report{}, err
	}

	report := Report{RunID: uuid.NewString()}
	slog.Info("ingest started", "run_id", report.RunID, "files", len(files), "workers", in.cfg.Workers)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(in.cfg.Workers)

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := in.File(ctx, report.RunID, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				kind := KindOf(err)
				slog.Warn("document rejected", "path", path, "kind", kind, "error", err)
				report.Failures = append(report.Failures, Failure{Path: path, Kind: kind, Err: err})
			case out.Status == StatusSkipped:
				report.Skipped = append(report.Skipped, out.Filename)
			default:
				report.Imported = append(report.Imported, out.Filename)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slices.Sort(report.Imported)
	slices.Sort(report.Skipped)
	slices.SortFunc(report.Failures, func(a, b Failure) int { return strings.Compare(a.Path, b.Path) })

	if err := in.store.SetRunSummary(report.Summary(time.Now().UTC())); err != nil {
		return report, fmt.Errorf("record run summary: %w", err)
	}
	slog.Info("ingest finished", "run_id", report.RunID,
		"imported", len(report.Imported), "skipped", len(report.Skipped), "failed", len(report.Failures))
	return report, nil
}

// File imports a single document from disk.
func (in *Ingester) File(ctx context.Context, runID, path string) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("read %s: %w", path, err)
	}
	return in.Ingest(ctx, runID, filepath.Base(path), data)
}

// Ingest imports one document given its filename and content. A document
// whose content hash matches the stored one is skipped unless Force is set.
func (in *Ingester) Ingest(ctx context.Context, runID, name string, data []byte) (Outcome, error) {
	id, err := paper.Parse(name)
	if err != nil {
		return Outcome{}, &extract.Rejection{Kind: extract.KindInvalidFilename, Filename: name, Err: err}
	}
	canonical, err := paper.Filename(id)
	if err != nil {
		return Outcome{}, &extract.Rejection{Kind: extract.KindInvalidFilename, Filename: name, Err: err}
	}

	hash := sha256sum(data)
	storedHash, err := in.store.ContentHash(canonical)
	if err != nil {
		return Outcome{}, fmt.Errorf("check import status for %s: %w", canonical, err)
	}
	if storedHash == hash && !in.cfg.Force {
		slog.Info("document unchanged, skipping", "filename", canonical)
		return Outcome{Status: StatusSkipped, Filename: canonical}, nil
	}

	text, err := in.text.Bytes(ctx, data)
	switch {
	case err == nil:
	case errors.Is(err, pdftext.ErrNoText), ctx.Err() != nil:
		return Outcome{}, fmt.Errorf("extract text from %s: %w", canonical, err)
	default:
		return Outcome{}, fmt.Errorf("extract text from %s: %w: %w", canonical, ErrUnreadable, err)
	}
	if len(text.Skipped) > 0 {
		slog.Warn("some pages had no readable text", "filename", canonical, "pages", text.Skipped)
	}

	var p *profile.Profile
	if id.PaperType == model.PaperTypeQuestionPaper {
		p, _ = in.profiles.Lookup(id.SubjectCode, id.PaperType)
	}
	res, err := extract.Document(name, text.Text, p)
	if err != nil {
		return Outcome{}, err
	}

	rec := model.Paper{
		Filename:    res.Filename,
		Identity:    res.Identity,
		ContentHash: hash,
		RunID:       runID,
		ImportedAt:  time.Now().UTC(),
	}
	if p != nil {
		rec.ProfileName = p.Name()
		rec.ProfileVer = p.Version()
	}

	switch res.Outcome {
	case extract.OutcomeQuestions:
		err = in.store.SaveQuestionPaper(rec, res.Questions)
	case extract.OutcomeMarkScheme:
		err = in.store.SaveMarkScheme(rec, *res.MarkScheme)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("save %s: %w", res.Filename, err)
	}

	slog.Info("imported document", "filename", res.Filename, "outcome", res.Outcome, "questions", len(res.Questions))
	return Outcome{Status: StatusImported, Filename: res.Filename, Result: res}, nil
}

// KindOf classifies an ingest error.
func KindOf(err error) extract.Kind {
	if kind, ok := extract.KindOf(err); ok {
		return kind
	}
	switch {
	case errors.Is(err, pdftext.ErrNoText):
		return KindNoText
	case errors.Is(err, ErrUnreadable), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindUnreadable
	default:
		return extract.KindInternal
	}
}

// Collect expands paths into a sorted list of files. Directories are walked
// recursively for *.pdf files; files named explicitly are always included.
func Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	slices.Sort(files)
	return files, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
