// internal/app/features/indicators/review.go
package indicators

import (
	"net/http"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/system/htmlsanitize"
)

// ServeReview applies an approve or reject decision.
// POST /indicators/{id}/review
func (h *Handler) ServeReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in reviewRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	ind, err := h.svc.Review(r.Context(), id, lifecycle.ReviewInput{
		Action:     in.Action,
		Remark:     htmlsanitize.Sanitize(in.Remark),
		ReportData: in.ReportData,
	}, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// ServeScore grades an indicator incrementally.
// POST /indicators/{id}/score
func (h *Handler) ServeScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in scoreRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	ind, err := h.svc.SubmitScore(r.Context(), id, lifecycle.ScoreInput{
		Score:        in.Score,
		Note:         htmlsanitize.Sanitize(in.Note),
		NextDeadline: in.NextDeadline,
	}, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// ServeProgress sets the progress value directly without grading.
// PUT /indicators/{id}/progress
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var in progressRequest
	if !h.decodeJSON(w, r, &in) {
		return
	}

	ind, err := h.svc.UpdateProgress(r.Context(), id, in.Progress, actor)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}
