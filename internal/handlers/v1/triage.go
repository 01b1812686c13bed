package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store/model"
)

type queueQuery struct {
	MinPriority string `validate:"priority"`
}

// (GET /api/v1/triage/verifications)
func (h *ServiceHandler) VerificationQueue(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if err := h.validator.Struct(queueQuery{MinPriority: r.URL.Query().Get("minPriority")}); err != nil {
		fail(w, r, err)
		return
	}

	entries, err := h.triageSrv.VerificationQueue(r.Context(), service.QueueFilter{
		AccountKind: kind,
		MinPriority: queryPriority(r, "minPriority"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, entries)
}

// (GET /api/v1/triage/applications)
func (h *ServiceHandler) ApplicationQueue(w http.ResponseWriter, r *http.Request) {
	postingID, err := queryUUID(r, "postingId")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	if err := h.validator.Struct(queueQuery{MinPriority: r.URL.Query().Get("minPriority")}); err != nil {
		fail(w, r, err)
		return
	}

	entries, err := h.triageSrv.ApplicationQueue(r.Context(), service.QueueFilter{
		JobPostingID: postingID,
		MinPriority:  queryPriority(r, "minPriority"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, entries)
}

// (GET /api/v1/triage/{recordType}/{id})
func (h *ServiceHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	var recordType string
	switch chi.URLParam(r, "recordType") {
	case "verifications":
		recordType = model.RecordTypeVerification
	case "applications":
		recordType = model.RecordTypeApplication
	default:
		badRequest(w, r, "unknown record type %q", chi.URLParam(r, "recordType"))
		return
	}

	entry, err := h.triageSrv.Suggest(r.Context(), recordType, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, entry)
}
