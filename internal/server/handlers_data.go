package server

import (
	"net/http"
	"strconv"

	"github.com/claude/kettlebell/internal/transfer"
)

// maxImportBody bounds an uploaded export file.
const maxImportBody = 32 << 20

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.ListSessions(r.Context(), 0)
	if err != nil {
		s.fail(w, err)
		return
	}
	data, filename, err := transfer.Export(sessions, s.now())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}
	res, err := s.importer.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBody), source)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.ctrl.Refresh(r.Context()); err != nil {
		s.log.Warn("refresh after import failed", "error", err)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "add confirm=true to clear all workout data")
		return
	}
	if err := s.ctrl.ClearAllData(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
