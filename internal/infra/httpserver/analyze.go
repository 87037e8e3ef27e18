package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/calicode24/calicode/internal/apperror"
	"github.com/calicode24/calicode/internal/application/analysis"
	"github.com/calicode24/calicode/internal/middleware"
)

const (
	// multipartOverhead is headroom for boundaries and the text fields
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// POST /api/analyze
// multipart: file (required), projectId, context
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	user, err := currentUser(req, "Unauthorized")
	if err != nil {
		return err
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.MaxUpload+multipartOverhead)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.IncrementAnalysesRejected()
			return apperror.BadRequest(fmt.Sprintf("File must be under %dMB", r.MaxUpload/(1024*1024))).Wrap(err)
		}
		return apperror.BadRequest("Invalid form data").Wrap(err)
	}
	defer req.MultipartForm.RemoveAll()

	file, header, err := req.FormFile("file")
	if err != nil {
		return apperror.BadRequest("No file provided").Wrap(err)
	}
	defer file.Close()

	res, err := r.Analysis.Analyze(req.Context(), analysis.Command{
		UserID:         user.ID,
		ProjectID:      strings.TrimSpace(req.FormValue("projectId")),
		Context:        middleware.SanitizeString(req.FormValue("context")),
		FileName:       header.Filename,
		DeclaredType:   header.Header.Get("Content-Type"),
		Size:           header.Size,
		Body:           file,
		IdempotencyKey: strings.TrimSpace(req.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		if analysis.IsInputError(err) {
			middleware.IncrementAnalysesRejected()
			return err
		}
		return apperror.Internal("Analysis failed. Please try again.").Wrap(err)
	}

	middleware.RecordAnalysis(string(res.Source))
	if res.Persisted != nil {
		middleware.AddPersistFailures(len(res.Persisted.Failures))
	}
	w.Header().Set("X-Analysis-Source", string(res.Source))
	return writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": res.Analysis,
	})
}
