package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
)

// ActionRequest is an inbound action on one record. Payload depends on Action.
type ActionRequest struct {
	RecordType      string          `json:"recordType" validate:"required,oneof=verification application"`
	RecordID        uuid.UUID       `json:"recordId" validate:"required"`
	Action          workflow.Action `json:"action" validate:"required"`
	ExpectedVersion *int            `json:"expectedVersion,omitempty" validate:"omitempty,gte=1"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

type notePayload struct {
	Notes string `json:"notes"`
}

// reasonPayload takes the reason from either field; reason wins when both are set.
type reasonPayload struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (p reasonPayload) text() string {
	if p.Reason != "" {
		return p.Reason
	}
	return p.Notes
}

// bareActions carry no payload; any field sent with them is refused.
var bareActions = map[workflow.Action]bool{
	workflow.ActionRequestVerification: true,
	workflow.ActionStartReview:         true,
	workflow.ActionMarkReviewed:        true,
	workflow.ActionShortlist:           true,
	workflow.ActionFlagShortlist:       true,
	workflow.ActionUnshortlist:         true,
	workflow.ActionCallForInterview:    true,
	workflow.ActionSelect:              true,
	workflow.ActionMakeOffer:           true,
	workflow.ActionAccept:              true,
}

type textPayload struct {
	Text string `json:"text" validate:"required"`
}

type priorityPayload struct {
	Priority model.Priority `json:"priority" validate:"required,oneof=low medium high"`
}

type documentsPayload struct {
	Documents []workflow.DocumentInput `json:"documents" validate:"required,min=1,dive"`
}

type verifyDocumentPayload struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

type revertPayload struct {
	Status model.ApplicationStatus `json:"status" validate:"required"`
	Reason string                  `json:"reason"`
}

// Dispatcher routes ActionRequests to the verification and application services.
type Dispatcher struct {
	verifications *VerificationService
	applications  *ApplicationService
	validate      *validator.Validate
}

func NewDispatcher(v *VerificationService, a *ApplicationService) *Dispatcher {
	return &Dispatcher{
		verifications: v,
		applications:  a,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Dispatch runs the action and returns a *Result of the record type.
func (d *Dispatcher) Dispatch(ctx context.Context, req ActionRequest) (any, error) {
	if err := d.validate.Struct(req); err != nil {
		return nil, NewErrInvalidPayload(string(req.Action), err)
	}
	if bareActions[req.Action] {
		if err := d.decode(req, &struct{}{}); err != nil {
			return nil, err
		}
	}
	target := Target{ID: req.RecordID, ExpectedVersion: req.ExpectedVersion}

	if req.RecordType == model.RecordTypeVerification {
		return d.verification(ctx, target, req)
	}
	return d.application(ctx, target, req)
}

func (d *Dispatcher) verification(ctx context.Context, target Target, req ActionRequest) (any, error) {
	v := d.verifications
	switch req.Action {
	case workflow.ActionRequestVerification:
		return v.RequestVerification(ctx, target)
	case workflow.ActionSubmitDocuments:
		var p documentsPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.SubmitDocuments(ctx, target, p.Documents)
	case workflow.ActionStartReview:
		return v.StartReview(ctx, target)
	case workflow.ActionApprove:
		var p notePayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.Approve(ctx, target, p.Notes)
	case workflow.ActionReject:
		var p reasonPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.Reject(ctx, target, p.text())
	case workflow.ActionReopen:
		var p notePayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.Reopen(ctx, target, p.Notes)
	case workflow.ActionSetPriority:
		var p priorityPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.SetPriority(ctx, target, p.Priority)
	case workflow.ActionAddNote:
		var p textPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.AddNote(ctx, target, p.Text)
	case workflow.ActionVerifyDocument:
		var p verifyDocumentPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return v.VerifyDocument(ctx, target, *p.Index)
	}
	return nil, NewErrUnknownAction(req.RecordType, string(req.Action))
}

func (d *Dispatcher) application(ctx context.Context, target Target, req ActionRequest) (any, error) {
	a := d.applications
	switch req.Action {
	case workflow.ActionMarkReviewed:
		return a.MarkReviewed(ctx, target)
	case workflow.ActionShortlist:
		return a.Shortlist(ctx, target)
	case workflow.ActionFlagShortlist:
		return a.FlagShortlist(ctx, target)
	case workflow.ActionUnshortlist:
		return a.Unshortlist(ctx, target)
	case workflow.ActionCallForInterview:
		return a.CallForInterview(ctx, target)
	case workflow.ActionSelect:
		return a.Select(ctx, target)
	case workflow.ActionMakeOffer:
		return a.MakeOffer(ctx, target)
	case workflow.ActionAccept:
		return a.Accept(ctx, target)
	case workflow.ActionReject:
		var p reasonPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return a.Reject(ctx, target, p.text())
	case workflow.ActionRevertStatus:
		var p revertPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return a.RevertStatus(ctx, target, p.Status, p.Reason)
	case workflow.ActionSetPriority:
		var p priorityPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return a.SetPriority(ctx, target, p.Priority)
	case workflow.ActionAddNote:
		var p textPayload
		if err := d.decode(req, &p); err != nil {
			return nil, err
		}
		return a.AddNote(ctx, target, p.Text)
	}
	return nil, NewErrUnknownAction(req.RecordType, string(req.Action))
}

// decode reads the payload into v and validates it. An empty payload decodes
// to the zero value.
func (d *Dispatcher) decode(req ActionRequest, v any) error {
	if len(bytes.TrimSpace(req.Payload)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(req.Payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return NewErrInvalidPayload(string(req.Action), err)
		}
	}
	if err := d.validate.Struct(v); err != nil {
		return NewErrInvalidPayload(string(req.Action), err)
	}
	return nil
}
