package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pavelanni/paperbank/internal/extract"
	appI18n "github.com/pavelanni/paperbank/internal/i18n"
	"github.com/pavelanni/paperbank/internal/ingest"
	"github.com/pavelanni/paperbank/internal/model"
	"github.com/pavelanni/paperbank/internal/paper"
	"github.com/pavelanni/paperbank/internal/profile"
)

// writeRejection reports a failed document as "upload failed: reason".
// Rejections are client errors; anything unclassified is a server error.
func writeRejection(w http.ResponseWriter, r *http.Request, err error) {
	kind := ingest.KindOf(err)
	status := http.StatusUnprocessableEntity
	if kind == extract.KindInternal {
		slog.Error("document processing failed", "error", err)
		status = http.StatusInternalServerError
	} else {
		slog.Info("document rejected", "kind", kind, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error: appI18n.UploadFailed(r.Context(), string(kind)),
		Kind:  string(kind),
	})
}

// handleExtract runs extraction on a plain-text body without storing anything.
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename query parameter is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var p *profile.Profile
	if id, err := paper.Parse(filename); err == nil && id.PaperType == model.PaperTypeQuestionPaper {
		p, _ = h.profiles.Lookup(id.SubjectCode, id.PaperType)
	}

	res, err := extract.Document(filename, string(body), p)
	if err != nil {
		writeRejection(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type uploadResponse struct {
	Status   ingest.Status   `json:"status"`
	Filename string          `json:"filename"`
	Outcome  extract.Outcome `json:"outcome,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// handleUpload ingests a PDF sent as the "file" field of a multipart form.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		internalError(w, err)
		return
	}

	out, err := h.ingester.Ingest(r.Context(), uuid.NewString(), header.Filename, data)
	if err != nil {
		writeRejection(w, r, err)
		return
	}

	resp := uploadResponse{
		Status:   out.Status,
		Filename: out.Filename,
		Outcome:  out.Result.Outcome,
	}
	status := http.StatusOK
	if out.Status == ingest.StatusImported {
		status = http.StatusCreated
		resp.Message = appI18n.Tp(r.Context(), "PapersImported", 1)
	}
	slog.Info("uploaded document via API", "filename", out.Filename, "status", out.Status)
	writeJSON(w, status, resp)
}
