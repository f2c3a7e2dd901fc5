package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/CsvCombine/internal/core"
	"github.com/JonMunkholm/CsvCombine/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is the in-memory threshold for multipart parsing.
// Parts beyond it spill to temp files.
const multipartMemory = 32 << 20

// recentActivityCount is how many activity entries the dashboard shows.
const recentActivityCount = 8

// maxRejectionFlashes caps how many per-file rejection notices one
// upload can queue. The rest fold into a single summary line.
const maxRejectionFlashes = 5

// handleDashboard renders the staging dashboard: pending flash notices,
// the staged file list, and recent activity.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	files, err := s.service.ListFiles(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	props := templates.DashboardProps{
		Files:       files,
		Flashes:     s.popFlashes(w, r),
		Recent:      s.service.Recent(recentActivityCount),
		Accept:      s.accept,
		Extensions:  s.extensions,
		MaxFileSize: s.maxFileLabel,
	}

	templates.Dashboard(props).Render(r.Context(), w)
}

// handleUpload stages every file posted under the "files" form field.
// Per-file validation failures do not fail the batch; each file reports
// its own outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxRequestSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.rejectRequest(w, r, http.StatusRequestEntityTooLarge, "Upload exceeds the request size limit")
			return
		}
		s.rejectRequest(w, r, http.StatusBadRequest, "Invalid upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		s.rejectRequest(w, r, http.StatusBadRequest, "No files were selected")
		return
	}

	incoming := make([]core.IncomingFile, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			s.rejectRequest(w, r, http.StatusBadRequest, "Could not read the uploaded form")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.rejectRequest(w, r, http.StatusBadRequest, "Could not read the uploaded form")
			return
		}
		incoming = append(incoming, core.IncomingFile{Name: part.Filename, Data: data})
	}

	outcomes, err := s.service.UploadBatch(r.Context(), incoming)
	if err != nil {
		if wantsJSON(r) {
			s.respondError(w, r, err, httpStatusFor(err))
			return
		}
		s.setFlashes(w, []templates.Flash{{Level: templates.FlashError, Message: core.FormatUserError(err)}})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, buildUploadResponse(outcomes))
		return
	}

	s.setFlashes(w, uploadFlashes(outcomes))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleRemove deletes one staged file by name.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	if err := s.service.Remove(r.Context(), name); err != nil {
		if wantsJSON(r) {
			s.respondError(w, r, err, httpStatusFor(err))
			return
		}
		s.setFlashes(w, []templates.Flash{{Level: templates.FlashError, Message: core.FormatUserError(err)}})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "file": name})
		return
	}

	s.setFlashes(w, []templates.Flash{{
		Level:   templates.FlashSuccess,
		Message: fmt.Sprintf("Removed %s", name),
	}})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleCombine merges every staged file and streams the result as a
// CSV download. On success the staging area has already been cleared,
// so a queued flash confirms the merge on the next dashboard visit.
func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.Combine(r.Context())
	if err != nil {
		if wantsJSON(r) {
			s.respondError(w, r, err, httpStatusFor(err))
			return
		}
		s.setFlashes(w, []templates.Flash{{Level: templates.FlashError, Message: core.FormatUserError(err)}})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.setFlashes(w, []templates.Flash{{
		Level:   templates.FlashSuccess,
		Message: fmt.Sprintf("Combined %d files into %s (%d rows)", out.FileCount, out.Filename, out.RowCount),
	}})

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Write(out.Data)
}

// handleHealthz reports liveness plus current limiter pressure.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.service.LimiterStatus(),
	})
}

// rejectRequest answers a malformed request before it reaches the
// service layer: JSON clients get an error object, browsers get a
// flash and a redirect home.
func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{
			Error:   message,
			Message: message,
			Code:    "REQ400",
		})
		return
	}
	s.setFlashes(w, []templates.Flash{{Level: templates.FlashError, Message: message}})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// uploadResponse is the JSON shape for a finished upload batch.
type uploadResponse struct {
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
	Results  []uploadFileResult `json:"results"`
}

// uploadFileResult reports one file's outcome within a batch.
type uploadFileResult struct {
	File   string `json:"file"`
	Stored string `json:"stored,omitempty"`
	Size   int64  `json:"size,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

func buildUploadResponse(outcomes []core.UploadOutcome) uploadResponse {
	resp := uploadResponse{Results: make([]uploadFileResult, 0, len(outcomes))}
	for _, o := range outcomes {
		result := uploadFileResult{File: o.OriginalName}
		if o.Accepted() {
			resp.Accepted++
			result.Stored = o.StoredName
			result.Size = o.Size
		} else {
			resp.Rejected++
			msg := core.MapError(o.Err)
			result.Error = msg.Message
			result.Code = msg.Code
		}
		resp.Results = append(resp.Results, result)
	}
	return resp
}

// uploadFlashes turns a batch of outcomes into dashboard notices: one
// success line plus per-file rejections, capped at maxRejectionFlashes.
func uploadFlashes(outcomes []core.UploadOutcome) []templates.Flash {
	var accepted int
	var rejections []templates.Flash
	for _, o := range outcomes {
		if o.Accepted() {
			accepted++
			continue
		}
		msg := core.MapError(o.Err)
		rejections = append(rejections, templates.Flash{
			Level:   templates.FlashError,
			Message: fmt.Sprintf("%s: %s", o.OriginalName, msg.Message),
		})
	}

	var flashes []templates.Flash
	if accepted > 0 {
		noun := "files"
		if accepted == 1 {
			noun = "file"
		}
		flashes = append(flashes, templates.Flash{
			Level:   templates.FlashSuccess,
			Message: fmt.Sprintf("Uploaded %d %s", accepted, noun),
		})
	}
	if len(rejections) > maxRejectionFlashes {
		extra := len(rejections) - maxRejectionFlashes
		rejections = rejections[:maxRejectionFlashes]
		rejections = append(rejections, templates.Flash{
			Level:   templates.FlashError,
			Message: fmt.Sprintf("and %d more files were rejected", extra),
		})
	}
	return append(flashes, rejections...)
}
