// Package pdftext is the document-text provider: it turns a PDF into the raw
// string the extractor works on.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for documents without a text layer, such as scanned
// pages. These need OCR, which is not supported.
var ErrNoText = errors.New("document has no extractable text")

// Reader extracts plain text from PDF documents.
type Reader struct {
	// MaxPages stops reading after this many pages; 0 means no limit.
	MaxPages int
}

// Result is the text of one document.
type Result struct {
	Text    string
	Pages   int
	Skipped []int // pages whose text could not be decoded
}

// File extracts text from the PDF at path.
func (r Reader) File(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat pdf: %w", err)
	}
	return r.read(ctx, f, info.Size())
}

// Bytes extracts text from an in-memory PDF.
func (r Reader) Bytes(ctx context.Context, data []byte) (Result, error) {
	return r.read(ctx, bytes.NewReader(data), int64(len(data)))
}

func (r Reader) read(ctx context.Context, ra io.ReaderAt, size int64) (Result, error) {
	doc, err := pdf.NewReader(ra, size)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}

	res := Result{Pages: doc.NumPage()}
	last := res.Pages
	if r.MaxPages > 0 && r.MaxPages < last {
		last = r.MaxPages
	}

	var sb strings.Builder
	for i := 1; i <= last; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(pageFonts(page))
		if err != nil {
			slog.Warn("failed to extract page text", "page", i, "error", err)
			res.Skipped = append(res.Skipped, i)
			continue
		}
		sb.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			sb.WriteString("\n")
		}
	}

	res.Text = sb.String()
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, fmt.Errorf("%w (%d pages)", ErrNoText, res.Pages)
	}
	return res, nil
}

func pageFonts(p pdf.Page) map[string]*pdf.Font {
	fonts := make(map[string]*pdf.Font)
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; ok {
			continue
		}
		f := p.Font(name)
		fonts[name] = &f
	}
	return fonts
}
