// internal/app/features/indicators/evidence.go
package indicators

import (
	"io"
	"net/http"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/system/htmlsanitize"
	"kpihub/internal/app/system/limits"
)

// ServeSubmitEvidence ingests a multipart evidence submission. Files go in
// the "files" field; "descriptions" values pair with files positionally.
// POST /indicators/{id}/evidence
func (h *Handler) ServeSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxEvidenceUploadSize)
	if err := r.ParseMultipartForm(limits.MaxEvidenceUploadSize); err != nil {
		h.errs.Respond(w, r, lifecycle.Validationf("malformed multipart body: %v", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.errs.Respond(w, r, lifecycle.Validationf("at least one file is required"))
		return
	}
	if len(headers) > limits.MaxEvidenceFiles {
		h.errs.Respond(w, r, lifecycle.Validationf("at most %d files per submission", limits.MaxEvidenceFiles))
		return
	}

	files := make([]lifecycle.FileUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > limits.MaxEvidenceFileSize {
			h.errs.Respond(w, r, lifecycle.Validationf("file %q exceeds %d bytes", fh.Filename, int64(limits.MaxEvidenceFileSize)))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.errs.ServerError(w, r, err, "")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.errs.ServerError(w, r, err, "")
			return
		}
		files = append(files, lifecycle.FileUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	descriptions := r.MultipartForm.Value["descriptions"]
	for i, d := range descriptions {
		descriptions[i] = htmlsanitize.Sanitize(d)
	}

	ind, err := h.svc.SubmitEvidence(r.Context(), id, files, descriptions, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// ServeRemoveEvidence removes one active evidence entry the caller owns.
// DELETE /indicators/{id}/evidence/{evidenceID}
func (h *Handler) ServeRemoveEvidence(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	evidenceID, ok := h.pathID(w, r, "evidenceID")
	if !ok {
		return
	}

	ind, err := h.svc.RemoveEvidence(r.Context(), id, evidenceID, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}
