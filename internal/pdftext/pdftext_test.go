package pdftext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileExtractsText(t *testing.T) {
	tests := []struct {
		name     string
		maxPages int
		want     []string
		notWant  []string
	}{
		{
			name: "all pages",
			want: []string{"1 Explain the causes of inflation. [8]", "2 Discuss whether fiscal policy is effective. [12]"},
		},
		{
			name:     "page limit",
			maxPages: 1,
			want:     []string{"1 Explain the causes of inflation. [8]"},
			notWant:  []string{"fiscal policy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reader{MaxPages: tt.maxPages}
			res, err := r.File(context.Background(), filepath.Join("testdata", "text.pdf"))
			if err != nil {
				t.Fatalf("File: %v", err)
			}
			if res.Pages != 2 {
				t.Errorf("pages = %d, want 2", res.Pages)
			}
			if len(res.Skipped) != 0 {
				t.Errorf("skipped pages = %v, want none", res.Skipped)
			}
			for _, s := range tt.want {
				if !strings.Contains(res.Text, s) {
					t.Errorf("text %q should contain %q", res.Text, s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(res.Text, s) {
					t.Errorf("text %q should not contain %q", res.Text, s)
				}
			}
			if i, j := strings.Index(res.Text, "inflation"), strings.Index(res.Text, "fiscal"); j >= 0 && j < i {
				t.Error("pages out of order")
			}
		})
	}
}

func TestBytesMatchesFile(t *testing.T) {
	path := filepath.Join("testdata", "text.pdf")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var r Reader
	fromFile, err := r.File(context.Background(), path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	fromBytes, err := r.Bytes(context.Background(), data)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if fromFile.Text != fromBytes.Text {
		t.Errorf("Bytes text %q differs from File text %q", fromBytes.Text, fromFile.Text)
	}
}

func TestFileWithoutTextLayer(t *testing.T) {
	var r Reader
	res, err := r.File(context.Background(), filepath.Join("testdata", "blank.pdf"))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v (text %q)", err, res.Text)
	}
}

func TestFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var r Reader
	_, err := r.File(ctx, filepath.Join("testdata", "text.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBytesRejectsNonPDF(t *testing.T) {
	var r Reader
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("1 Explain the causes of inflation. [8]\n")},
		{"truncated header", []byte("%PDF-1.4\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Bytes(context.Background(), tt.data)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(err, ErrNoText) {
				t.Error("a broken file should not be reported as a text-less document")
			}
		})
	}
}

func TestFileMissing(t *testing.T) {
	var r Reader
	_, err := r.File(context.Background(), filepath.Join(t.TempDir(), "9708_s22_qp_22.pdf"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
