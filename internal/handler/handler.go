package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/paperbank/internal/i18n"
	"github.com/pavelanni/paperbank/internal/ingest"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/profile"
	"github.com/pavelanni/paperbank/internal/store"
)

// DefaultMaxUpload is the multipart size limit used when Config leaves it unset.
const DefaultMaxUpload = 32 << 20

// Config holds HTTP-layer settings.
type Config struct {
	MaxUploadBytes int64
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	profiles *profile.Registry
	ingester *ingest.Ingester
	config   Config
}

// New creates a new Handler.
func New(s *store.Store, profiles *profile.Registry, in *ingest.Ingester, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUpload
	}
	return &Handler{store: s, profiles: profiles, ingester: in, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/extract", h.handleExtract)
	r.Post("/papers", h.handleUpload)
	r.Get("/papers", h.handleListPapers)
	r.Get("/papers/{filename}", h.handleGetPaper)
	r.Get("/papers/{filename}/questions", h.handlePaperQuestions)
	r.Get("/papers/{filename}/markscheme", h.handleMarkScheme)
	r.Get("/questions", h.handleQuestions)
	r.Get("/profiles", h.handleProfiles)
	r.Get("/runs/last", h.handleLastRun)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// paperParam reads and canonicalises the {filename} URL parameter.
func paperParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := paper.Normalize(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return name, true
}

func (h *Handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.PaperFilter{
		SubjectCode: q.Get("subject"),
		Session:     model.Session(q.Get("session")),
		PaperType:   model.PaperType(q.Get("type")),
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		f.Year = year
	}

	papers, err := h.store.ListPapers(f)
	if err != nil {
		internalError(w, err)
		return
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	writeJSON(w, http.StatusOK, papers)
}

func (h *Handler) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	name, ok := paperParam(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPaper(name)
	if err != nil {
		internalError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "PaperNotFound", map[string]any{"Filename": name}))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handlePaperQuestions(w http.ResponseWriter, r *http.Request) {
	name, ok := paperParam(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPaper(name)
	if err != nil {
		internalError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "PaperNotFound", map[string]any{"Filename": name}))
		return
	}
	questions, err := h.store.ListQuestions(name)
	if err != nil {
		internalError(w, err)
		return
	}
	if questions == nil {
		questions = []model.StoredQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleMarkScheme(w http.ResponseWriter, r *http.Request) {
	name, ok := paperParam(w, r)
	if !ok {
		return
	}
	id, err := paper.Parse(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ms *model.ExtractedMarkScheme
	switch id.PaperType {
	case model.PaperTypeQuestionPaper:
		ms, err = h.store.MarkSchemeFor(name)
	case model.PaperTypeMarkScheme:
		ms, err = h.store.GetMarkScheme(name)
	default:
		writeError(w, http.StatusBadRequest, appI18n.T(r.Context(), "RejectUnsupportedType"))
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if ms == nil {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "MarkSchemeNotFound", map[string]any{"Filename": name}))
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	difficulty := model.Difficulty(r.URL.Query().Get("difficulty"))
	switch difficulty {
	case "", model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		writeError(w, http.StatusBadRequest, "invalid difficulty")
		return
	}

	questions, err := h.store.ListQuestionsFiltered(subject, difficulty)
	if err != nil {
		internalError(w, err)
		return
	}
	if questions == nil {
		questions = []model.StoredQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	list := h.profiles.List()
	configs := make([]profile.Config, 0, len(list))
	for _, p := range list {
		configs = append(configs, p.Config())
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *Handler) handleLastRun(w http.ResponseWriter, r *http.Request) {
	sum, err := h.store.GetRunSummary()
	if err != nil {
		internalError(w, err)
		return
	}
	if sum.RunID == "" {
		writeError(w, http.StatusNotFound, "no ingest run recorded")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
