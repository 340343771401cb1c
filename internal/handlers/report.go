package handlers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/mentornet/apiserver/internal/export"
	"github.com/mentornet/apiserver/internal/services"
)

// ReportHandler serves the admin activity report export.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler constructs a handler with the provided service.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ReportRouter registers report routes on the given router. The session
// middleware must run first; the privilege check itself happens inside the
// service against the external authority.
func ReportRouter(r chi.Router, reportService *services.ReportService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewReportHandler(reportService)

	if authMiddleware != nil {
		r.With(authMiddleware).Get("/", handler.ExportReport)
	} else {
		r.Get("/", handler.ExportReport)
	}
}

// ExportReport runs the export pipeline and writes the delimited document.
// The field delimiter defaults to ';' and can be overridden with the
// single-character "delimiter" query parameter.
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	delimiter := rune(export.DefaultDelimiter)
	if raw := r.URL.Query().Get("delimiter"); raw != "" {
		decoded, size := utf8.DecodeRuneInString(raw)
		if decoded == utf8.RuneError || size != len(raw) {
			writeError(w, http.StatusBadRequest, "delimiter must be a single character")
			return
		}
		delimiter = decoded
	}

	doc, err := h.reportService.Export(r.Context(), caller, delimiter)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "administrative privilege required")
		case errors.Is(err, services.ErrAuthorityUnavailable):
			writeError(w, http.StatusBadGateway, "authorization authority unavailable")
		case errors.Is(err, services.ErrReportQuery):
			writeError(w, http.StatusInternalServerError, "failed to build report")
		default:
			writeError(w, http.StatusInternalServerError, "failed to export report")
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="user-report.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
