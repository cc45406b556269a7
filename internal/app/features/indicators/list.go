// internal/app/features/indicators/list.go
package indicators

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/app/lifecycle"
	indicatorstore "kpihub/internal/app/store/indicators"
	"kpihub/internal/app/system/paging"
	"kpihub/internal/domain/models"
)

// ServeGet returns one indicator with its full embedded history.
// GET /indicators/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	ind, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

// ServeList returns one page of indicators, newest first. Optional query
// filters: status, category_id, level2_id, assignee_id; start is the
// 1-based offset.
// GET /indicators
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		h.errs.Respond(w, r, err)
		return
	}

	start := paging.ParseStart(r)
	skip := int64(start - 1)

	items, total, err := h.store.List(r.Context(), filter, skip, int64(paging.PageSize))
	if err != nil {
		h.errs.ServerError(w, r, err, "")
		return
	}
	if items == nil {
		items = []models.Indicator{} // never emit null for items
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items:    items,
		Total:    total,
		Start:    start,
		PageSize: paging.PageSize,
	})
}

func listFilterFromQuery(r *http.Request) (indicatorstore.ListFilter, error) {
	var f indicatorstore.ListFilter
	f.Status = query.Get(r, "status")

	var err error
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		return f, err
	}
	if f.Level2ID, err = queryID(r, "level2_id"); err != nil {
		return f, err
	}
	if f.AssigneeID, err = queryID(r, "assignee_id"); err != nil {
		return f, err
	}
	return f, nil
}

func queryID(r *http.Request, param string) (primitive.ObjectID, error) {
	raw := query.Get(r, param)
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, lifecycle.Validationf("invalid %s", param)
	}
	return id, nil
}
