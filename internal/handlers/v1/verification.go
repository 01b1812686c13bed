package v1

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store/model"
)

type verificationQuery struct {
	Statuses []string `validate:"dive,verification_status"`
	Priority string   `validate:"priority"`
	Limit    int      `validate:"lte=500"`
}

// (GET /api/v1/verifications)
func (h *ServiceHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	openOnly, err := queryBool(r, "open")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	q := verificationQuery{
		Statuses: queryList(r, "status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    limit,
	}
	if err := h.validator.Struct(q); err != nil {
		fail(w, r, err)
		return
	}

	filter := service.VerificationFilter{
		AccountKind: kind,
		Priority:    queryPriority(r, "priority"),
		OpenOnly:    openOnly,
		Limit:       limit,
		Offset:      offset,
	}
	for _, s := range q.Statuses {
		filter.Statuses = append(filter.Statuses, model.VerificationStatus(s))
	}

	records, err := h.verificationSrv.List(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, records)
}

// (GET /api/v1/verifications/{id})
func (h *ServiceHandler) GetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	record, err := h.verificationSrv.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	setETag(w, record.Version)
	render.JSON(w, r, record)
}

// (GET /api/v1/verifications/{id}/notes)
func (h *ServiceHandler) ListVerificationNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	notes, err := h.verificationSrv.Notes(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, notes)
}

// (GET /api/v1/verifications/{id}/requirements)
func (h *ServiceHandler) GetRequirements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	req, err := h.verificationSrv.Requirements(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, req)
}
