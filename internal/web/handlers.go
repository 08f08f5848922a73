package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alumnihub/gradimport/internal/core"
	"github.com/alumnihub/gradimport/internal/logging"
)

// flushInterval is how many CSV rows are written between flushes when
// streaming an export.
const flushInterval = 1000

// handleImport accepts a multipart CSV upload and starts an asynchronous
// import run. Responds 202 with the run ID; poll the run endpoints or
// subscribe to events for progress.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, core.MaxFileSize+1024)

	if err := r.ParseMultipartForm(core.MaxFileSize); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, core.MaxFileSize+1))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > core.MaxFileSize {
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds maximum size of %d bytes", core.MaxFileSize))
		return
	}

	runID, err := s.service.StartImport(r.Context(), header.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrTooManyImports) {
			status = http.StatusTooManyRequests
		}
		respondError(w, r, status, err)
		return
	}

	logging.FromContext(r.Context()).Info("import started",
		"run_id", runID,
		"file_name", header.Filename,
		"size", len(data),
	)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": "accepted",
	})
}

// handleListRuns returns recent import runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	runs, err := s.service.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns the summary of one run, active or historical.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.service.GetRun(r.Context(), runID)
	switch {
	case errors.Is(err, core.ErrRunInProgress):
		p, _ := s.service.GetRunProgress(runID)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"run_id":   runID,
			"status":   "processing",
			"progress": p,
		})
		return
	case errors.Is(err, core.ErrRunNotFound):
		respondError(w, r, http.StatusNotFound, err)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleRunProgress returns the current progress snapshot of an active run.
func (s *Server) handleRunProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	progress, err := s.service.GetRunProgress(runID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, status, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"progress": progress,
		"percent":  progress.Percent(),
	})
}

// handleRunEvents streams progress updates for an active run as
// server-sent events until the run finishes or the client disconnects.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	updates, err := s.service.SubscribeProgress(runID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, status, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, r, http.StatusInternalServerError,
			fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case p, open := <-updates:
			if !open {
				return
			}
			data, err := json.Marshal(p)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleCancelRun requests cancellation of an active run. The run ends
// with status cancelled and its partial summary is preserved.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if err := s.service.CancelImport(runID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, status, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"run_id": runID,
		"status": "cancelling",
	})
}

// handleLimiterStatus reports how many import slots are in use.
func (s *Server) handleLimiterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleDownloadTemplate serves an empty CSV with the expected import
// columns plus one example row.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="graduate_import_template.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write(core.ImportColumns)
	_ = cw.Write([]string{
		"Jane Doe", "jane.doe@example.com", "+1 555 0100", "12 Main St",
		"STU-1001", "Computer Science", "2024", "3.7", "excellent",
		"employed", "Software Engineer", "Acme Corp", "85000", "2024-07-01",
		"Go, SQL, Docker", "AWS Certified|Amazon|2024", "yes", "no",
	})
	cw.Flush()
}

// handleExport streams matching graduates as a CSV download. Filters,
// sort, and field selection come from query parameters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	spec, err := parseExportSpec(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	table, err := s.service.ExportGraduates(r.Context(), spec)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	fileName := fmt.Sprintf("graduates_export_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, fileName))

	cw := csv.NewWriter(w)
	if len(table.Headings) > 0 {
		if err := cw.Write(table.Headings); err != nil {
			logging.FromContext(r.Context()).Error("write export headings", "error", err)
			return
		}
	}

	flusher, _ := w.(http.Flusher)
	for i, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			logging.FromContext(r.Context()).Error("write export row", "error", err, "row", i)
			return
		}
		if flusher != nil && i > 0 && i%flushInterval == 0 {
			cw.Flush()
			flusher.Flush()
		}
	}
	cw.Flush()

	logging.FromContext(r.Context()).Info("export completed",
		"rows", len(table.Rows),
		"fields", len(table.Widths),
	)
}
