package v1

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store/model"
)

type applicationQuery struct {
	Statuses []string `validate:"dive,application_status"`
	Limit    int      `validate:"lte=500"`
}

// (GET /api/v1/applications)
func (h *ServiceHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	var (
		filter service.ApplicationFilter
		err    error
	)
	if filter.JobPostingID, err = queryUUID(r, "postingId"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.OrganizationID, err = queryUUID(r, "organizationId"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.AccountID, err = queryUUID(r, "accountId"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.OpenOnly, err = queryBool(r, "open"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.OnShortlist, err = queryBool(r, "shortlist"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	q := applicationQuery{Statuses: queryList(r, "status"), Limit: filter.Limit}
	if err := h.validator.Struct(q); err != nil {
		fail(w, r, err)
		return
	}
	for _, s := range q.Statuses {
		filter.Statuses = append(filter.Statuses, model.ApplicationStatus(s))
	}

	records, err := h.applicationSrv.List(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, records)
}

// (GET /api/v1/applications/{id})
func (h *ServiceHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	record, err := h.applicationSrv.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	setETag(w, record.Version)
	render.JSON(w, r, record)
}

// (GET /api/v1/applications/{id}/notes)
func (h *ServiceHandler) ListApplicationNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	notes, err := h.applicationSrv.Notes(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, notes)
}
