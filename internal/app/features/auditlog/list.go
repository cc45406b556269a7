// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/store/audit"
	"kpihub/internal/app/system/paging"
	"kpihub/internal/app/system/timeouts"
)

// ServeList handles GET /audit. Events come back most recent first;
// category, event_type, indicator_id, user_id, actor_id, start_date, and
// end_date narrow the result.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.log, "audit log list")
	defer cancel()

	start := paging.ParseStart(r)
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     int64(paging.PageSize),
		Offset:    int64(start - 1),
	}

	for param, dst := range map[string]**primitive.ObjectID{
		"indicator_id": &filter.IndicatorID,
		"user_id":      &filter.UserID,
		"actor_id":     &filter.ActorID,
	} {
		raw := query.Get(r, param)
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			h.errs.Respond(w, r, lifecycle.Validationf("invalid %s", param))
			return
		}
		*dst = &id
	}

	if raw := query.Get(r, "start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.errs.Respond(w, r, lifecycle.Validationf("start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if raw := query.Get(r, "end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.errs.Respond(w, r, lifecycle.Validationf("end_date must be YYYY-MM-DD"))
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	events, err := h.store.Query(ctx, filter)
	if err != nil {
		h.errs.ServerError(w, r, err, "query audit events")
		return
	}
	total, err := h.store.CountByFilter(ctx, filter)
	if err != nil {
		h.errs.ServerError(w, r, err, "count audit events")
		return
	}

	names := h.resolveNames(ctx, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = nameOrHex(names, *e.ActorID)
		}
		if e.UserID != nil {
			item.TargetName = nameOrHex(names, *e.UserID)
		}
		if e.IndicatorID != nil {
			item.IndicatorID = e.IndicatorID.Hex()
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(listResponse{
		Items:    items,
		Total:    total,
		Start:    start,
		PageSize: paging.PageSize,
	})
}

// ServeEventTypes handles GET /audit/event-types, the filter dropdown
// source. ?category narrows to one category's types.
func (h *Handler) ServeEventTypes(w http.ResponseWriter, r *http.Request) {
	types := eventTypesForCategory(strings.TrimSpace(query.Get(r, "category")))
	if types == nil {
		types = []string{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string][]string{"event_types": types})
}

// resolveNames batch fetches the full names for every actor and target in
// the result set. Resolution failures degrade to hex IDs, never errors.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	idSet := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			idSet[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			idSet[*e.UserID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := h.users.GetByIDs(ctx, ids)
	if err != nil {
		h.log.Warn("user name resolution failed", zap.Error(err))
		return nil
	}

	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}

func nameOrHex(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.Hex()
}
