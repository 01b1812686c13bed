package v1

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/careerlink/portal-engine/internal/service"
)

// (POST /api/v1/accounts)
func (h *ServiceHandler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var form service.AccountForm
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		badRequest(w, r, "malformed body: %s", err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		fail(w, r, err)
		return
	}

	account, err := h.accountSrv.Register(r.Context(), form)
	if err != nil {
		fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, account)
}

// (GET /api/v1/accounts)
func (h *ServiceHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	accounts, err := h.accountSrv.List(r.Context(), kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, accounts)
}

// (GET /api/v1/accounts/{id})
func (h *ServiceHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	account, err := h.accountSrv.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	render.JSON(w, r, account)
}

// (DELETE /api/v1/accounts/{id})
func (h *ServiceHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	if err := h.accountSrv.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// (GET /api/v1/accounts/{id}/verification)
func (h *ServiceHandler) GetAccountVerification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	record, err := h.verificationSrv.GetByAccount(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	setETag(w, record.Version)
	render.JSON(w, r, record)
}
