package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

const exportFilename = "inventory.csv"

var errFileTooLarge = errors.New("file too large")

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, exportFilename))

	// Once the first row is written the status is committed, so a late
	// failure can only be logged.
	ew := &exportWriter{w: w}
	if err := s.service.ExportCSV(r.Context(), ew); err != nil {
		if ew.started {
			slog.ErrorContext(r.Context(), "csv export aborted", "error", err)
			return
		}
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, err)
	}
}

type exportWriter struct {
	w       io.Writer
	started bool
}

func (e *exportWriter) Write(p []byte) (int, error) {
	e.started = true
	return e.w.Write(p)
}

// handleImportCSV spools the uploaded file to disk, then syncs it by name.
// The spooled copy is removed whatever the outcome.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: %v", errFileTooLarge, err))
			return
		}
		s.respondError(w, r, core.ValidationErrors{{Field: "file", Message: "no file provided"}})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ValidationErrors{{Field: "file", Message: "no file provided"}})
		return
	}
	defer file.Close()

	spool, err := spoolUpload(s.cfg.Upload.TempDir, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer func() {
		spool.Close()
		if err := os.Remove(spool.Name()); err != nil {
			slog.Warn("remove spooled upload", "path", spool.Name(), "error", err)
		}
	}()

	start := time.Now()
	result, err := s.service.ImportCSV(r.Context(), spool)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "csv upload processed",
		"file", header.Filename,
		"size", header.Size,
		"duration", time.Since(start),
	)
	writeJSON(w, http.StatusOK, result)
}

// spoolUpload copies src into a temp file in dir and rewinds it.
func spoolUpload(dir string, src io.Reader) (*os.File, error) {
	f, err := os.CreateTemp(dir, "import-*.csv")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return f, nil
}
