package v1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

// actionBody is the flat action request: the action name next to the fields
// of its payload, e.g. {"action": "approve", "notes": "ok"}.
type actionBody struct {
	Action  workflow.Action
	Payload json.RawMessage
}

func decodeActionBody(r *http.Request) (actionBody, error) {
	var fields map[string]json.RawMessage
	if err := render.DecodeJSON(r.Body, &fields); err != nil {
		return actionBody{}, err
	}

	var body actionBody
	if raw, ok := fields["action"]; ok {
		if err := json.Unmarshal(raw, &body.Action); err != nil {
			return actionBody{}, fmt.Errorf("action: %w", err)
		}
		delete(fields, "action")
	}
	if len(fields) > 0 {
		payload, err := json.Marshal(fields)
		if err != nil {
			return actionBody{}, err
		}
		body.Payload = payload
	}
	return body, nil
}

// (POST /api/v1/verifications/{id}/actions)
func (h *ServiceHandler) VerificationAction(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, model.RecordTypeVerification)
}

// (POST /api/v1/applications/{id}/actions)
func (h *ServiceHandler) ApplicationAction(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, model.RecordTypeApplication)
}

func (h *ServiceHandler) action(w http.ResponseWriter, r *http.Request, recordType string) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}
	version, err := expectedVersion(r)
	if err != nil {
		badRequest(w, r, "%s", err)
		return
	}

	body, err := decodeActionBody(r)
	if err != nil {
		badRequest(w, r, "malformed body: %s", err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), service.ActionRequest{
		RecordType:      recordType,
		RecordID:        id,
		Action:          body.Action,
		ExpectedVersion: version,
		Payload:         body.Payload,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	switch res := result.(type) {
	case *service.Result[model.VerificationRecord]:
		setETag(w, res.Record.Version)
	case *service.Result[model.ApplicationRecord]:
		setETag(w, res.Record.Version)
	}
	render.JSON(w, r, result)
}
