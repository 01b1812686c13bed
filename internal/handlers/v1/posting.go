package v1

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/auth"
	"github.com/careerlink/portal-engine/internal/service"
)

type applyBody struct {
	// AccountID defaults to the caller's own account.
	AccountID *uuid.UUID `json:"accountId,omitempty"`
}

// (POST /api/v1/postings)
func (h *ServiceHandler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	var form service.PostingForm
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, "malformed body: %s", err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		fail(w, r, err)
		return
	}

	posting, err := h.postingSrv.Create(r.Context(), form)
	if err != nil {
		fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, posting)
}

// (GET /api/v1/postings)
func (h *ServiceHandler) ListPostings(w http.ResponseWriter, r *http.Request) {
	orgID, err := queryUUID(r, "organizationId")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	postings, err := h.postingSrv.List(r.Context(), orgID)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, postings)
}

// (GET /api/v1/postings/{id})
func (h *ServiceHandler) GetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	posting, err := h.postingSrv.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, posting)
}

// (POST /api/v1/postings/{id}/applications)
func (h *ServiceHandler) Apply(w http.ResponseWriter, r *http.Request) {
	postingID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	var body applyBody
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			badRequest(w, r, "malformed body: %s", err)
			return
		}
	}

	user := auth.MustHaveUser(r.Context())
	accountID := body.AccountID
	if accountID == nil {
		accountID = user.AccountID
	}
	if accountID == nil {
		badRequest(w, r, "accountId is required")
		return
	}

	result, err := h.applicationSrv.Apply(r.Context(), postingID, *accountID)
	if err != nil {
		fail(w, r, err)
		return
	}

	setETag(w, result.Record.Version)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}
