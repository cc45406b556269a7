// internal/app/features/indicators/types.go
package indicators

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/domain/models"
)

// createRequest is the JSON body for POST /indicators. IDs are hex
// ObjectIDs; dates are RFC 3339.
type createRequest struct {
	CategoryID    string    `json:"category_id"`
	Level2ID      string    `json:"level2_id"`
	IndicatorID   string    `json:"indicator_id"`
	Unit          string    `json:"unit"`
	AssignedTo    string    `json:"assigned_to,omitempty"`
	AssignedGroup []string  `json:"assigned_group,omitempty"`
	StartDate     time.Time `json:"start_date"`
	DueDate       time.Time `json:"due_date"`
}

func (in createRequest) toSpec() (lifecycle.CreateSpec, error) {
	spec := lifecycle.CreateSpec{
		Unit:      in.Unit,
		StartDate: in.StartDate,
		DueDate:   in.DueDate,
	}

	var err error
	if spec.CategoryID, err = parseID(in.CategoryID, "category_id"); err != nil {
		return spec, err
	}
	if spec.Level2ID, err = parseID(in.Level2ID, "level2_id"); err != nil {
		return spec, err
	}
	if spec.IndicatorID, err = parseID(in.IndicatorID, "indicator_id"); err != nil {
		return spec, err
	}
	if in.AssignedTo != "" {
		id, err := parseID(in.AssignedTo, "assigned_to")
		if err != nil {
			return spec, err
		}
		spec.AssignedTo = &id
	}
	if spec.AssignedGroup, err = parseIDs(in.AssignedGroup, "assigned_group"); err != nil {
		return spec, err
	}
	return spec, nil
}

// updateRequest is the JSON body for PATCH /indicators/{id}. Absent fields
// stay untouched; pointers distinguish "not sent" from zero values.
type updateRequest struct {
	Unit         *string    `json:"unit"`
	StartDate    *time.Time `json:"start_date"`
	DueDate      *time.Time `json:"due_date"`
	NextDeadline *time.Time `json:"next_deadline"`
	Status       *string    `json:"status"`

	AssignedTo    *string   `json:"assigned_to"`
	AssignedGroup *[]string `json:"assigned_group"`

	EvidenceDescriptions map[string]string `json:"evidence_descriptions"`
}

func (in updateRequest) toPatch() (lifecycle.Patch, error) {
	patch := lifecycle.Patch{
		Unit:                 in.Unit,
		StartDate:            in.StartDate,
		DueDate:              in.DueDate,
		NextDeadline:         in.NextDeadline,
		Status:               in.Status,
		EvidenceDescriptions: in.EvidenceDescriptions,
	}

	if in.AssignedTo != nil {
		id, err := parseID(*in.AssignedTo, "assigned_to")
		if err != nil {
			return patch, err
		}
		patch.AssignedTo = &id
	}
	if in.AssignedGroup != nil {
		ids, err := parseIDs(*in.AssignedGroup, "assigned_group")
		if err != nil {
			return patch, err
		}
		patch.AssignedGroup = &ids
	}
	return patch, nil
}

// reviewRequest is the JSON body for POST /indicators/{id}/review.
type reviewRequest struct {
	Action     string            `json:"action"`
	Remark     string            `json:"remark"`
	ReportData map[string]string `json:"report_data,omitempty"`
}

// scoreRequest is the JSON body for POST /indicators/{id}/score.
type scoreRequest struct {
	Score        int        `json:"score"`
	Note         string     `json:"note,omitempty"`
	NextDeadline *time.Time `json:"next_deadline,omitempty"`
}

// progressRequest is the JSON body for PUT /indicators/{id}/progress.
type progressRequest struct {
	Progress int `json:"progress"`
}

// listResponse is one page of indicators plus the total match count.
type listResponse struct {
	Items    []models.Indicator `json:"items"`
	Total    int64              `json:"total"`
	Start    int                `json:"start"`
	PageSize int                `json:"page_size"`
}

func parseID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, lifecycle.Validationf("invalid %s", field)
	}
	return id, nil
}

func parseIDs(hexes []string, field string) ([]primitive.ObjectID, error) {
	if len(hexes) == 0 {
		return nil, nil
	}
	out := make([]primitive.ObjectID, len(hexes))
	for i, h := range hexes {
		id, err := parseID(h, field)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
