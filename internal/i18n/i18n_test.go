package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "RejectInternal")
	if got != "an internal error occurred" {
		t.Errorf("T(RejectInternal) = %q, want 'an internal error occurred'", got)
	}
}

func TestUploadFailed(t *testing.T) {
	tests := []struct {
		lang string
		kind string
		want string
	}{
		{"en", "no_pattern_match", "Upload failed: no question boundaries were found; the subject profile may need updating"},
		{"en", "no_text", "Upload failed: the document has no text layer (scanned pages are not supported)"},
		{"en", "pattern_timeout", "Upload failed: a subject profile pattern took too long to match; the profile may need updating"},
		{"en", "something_else", "Upload failed: an internal error occurred"},
		{"ru", "missing_marks", "Не удалось загрузить файл: у вопроса нет отметки о баллах; возможно, нужно обновить профиль предмета"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.kind, func(t *testing.T) {
			ctx := initLang(t, tt.lang)
			if got := UploadFailed(ctx, tt.kind); got != tt.want {
				t.Errorf("UploadFailed(%q) = %q, want %q", tt.kind, got, tt.want)
			}
		})
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "PapersImported", 1); got != "1 paper imported." {
		t.Errorf("Tp(PapersImported, 1) = %q", got)
	}
	if got := Tp(ctx, "PapersImported", 5); got != "5 papers imported." {
		t.Errorf("Tp(PapersImported, 5) = %q", got)
	}

	ctx = initLang(t, "ru")
	if got := Tp(ctx, "PapersImported", 5); got != "Загружено 5 работ." {
		t.Errorf("Tp(PapersImported, 5) in ru = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "PaperNotFound", map[string]any{"Filename": "9708_s22_qp_22.pdf"})
	if got != "Paper 9708_s22_qp_22.pdf not found" {
		t.Errorf("Td(PaperNotFound) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddlewareNegotiatesLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	tests := []struct {
		accept string
		want   string
	}{
		{"", "an internal error occurred"},
		{"ru-RU,ru;q=0.9,en;q=0.8", "произошла внутренняя ошибка"},
		{"de-DE", "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			var got string
			h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = T(r.Context(), "RejectInternal")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RejectInternal = %q, want %q", got, tt.want)
			}
		})
	}
}
