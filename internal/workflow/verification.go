package workflow

import (
	"fmt"
	"strings"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/store/model"
)

// DocumentInput is the metadata of one uploaded file, as received from the upload flow.
// The storage reference travels as "url".
type DocumentInput struct {
	Type             model.DocumentType `json:"type" validate:"required"`
	Name             string             `json:"name" validate:"required"`
	StorageReference string             `json:"url" validate:"required"`
	Size             int64              `json:"size" validate:"gte=0"`
}

// VerificationEngine applies verification actions to in-memory records. It does
// no I/O; persistence and locking belong to the caller.
type VerificationEngine struct {
	base
	catalog *catalog.Catalog
}

func NewVerificationEngine(c *catalog.Catalog, opts ...Option) *VerificationEngine {
	return &VerificationEngine{base: newBase(opts...), catalog: c}
}

// NewRecord builds the pending record created alongside a new account.
func (e *VerificationEngine) NewRecord(account model.Account) (model.VerificationRecord, error) {
	if _, err := e.catalog.RequiredDocuments(account.Kind); err != nil {
		return model.VerificationRecord{}, err
	}
	return model.NewVerificationRecord(account.ID, account.Kind, e.now()), nil
}

// RequestVerification marks the record as requested. Repeated calls keep the
// first request time.
func (e *VerificationEngine) RequestVerification(r *model.VerificationRecord) (*Transition, error) {
	t := newTransition(ActionRequestVerification, string(r.Status))
	switch r.Status {
	case model.VerificationPending, model.VerificationUnderReview:
		if r.RequestedAt == nil {
			now := e.now()
			r.RequestedAt = &now
			t.StateChanged = true
		}
		return t, nil
	default:
		return nil, NewErrInvalidState(ActionRequestVerification, string(r.Status), "verification already decided, reopen it first")
	}
}

func (e *VerificationEngine) SubmitDocuments(r *model.VerificationRecord, docs []DocumentInput) (*Transition, error) {
	if r.Status.Resolved() {
		return nil, NewErrClosed(ActionSubmitDocuments, string(r.Status))
	}
	if len(docs) == 0 {
		return nil, NewErrInvalidDocument("%s: no documents given", ActionSubmitDocuments)
	}
	for i, d := range docs {
		if _, ok := e.catalog.Lookup(r.AccountKind, d.Type); !ok {
			return nil, NewErrInvalidDocument("document %d: type %q is not accepted for %s accounts", i, d.Type, r.AccountKind)
		}
		if blank(d.Name) || blank(d.StorageReference) {
			return nil, NewErrInvalidDocument("document %d: name and storage reference are required", i)
		}
		if d.Size < 0 {
			return nil, NewErrInvalidDocument("document %d: negative size", i)
		}
	}

	now := e.now()
	t := newTransition(ActionSubmitDocuments, string(r.Status))
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		sub := model.DocumentSubmission{
			VerificationID:   r.ID,
			Type:             d.Type,
			Name:             strings.TrimSpace(d.Name),
			StorageReference: d.StorageReference,
			Size:             d.Size,
			UploadedAt:       now,
		}
		r.Documents = append(r.Documents, sub)
		t.Documents = append(t.Documents, sub)
		types = append(types, string(d.Type))
	}
	e.appendNote(r, t, model.AuthorSystem, fmt.Sprintf("%d document(s) submitted: %s", len(docs), strings.Join(types, ", ")))
	// documents must not land on a record decided concurrently
	t.StateChanged = true
	return t, nil
}

func (e *VerificationEngine) MoveToUnderReview(r *model.VerificationRecord) (*Transition, error) {
	t, err := e.move(r, ActionStartReview, "")
	if err != nil {
		return nil, err
	}
	if r.RequestedAt == nil {
		now := e.now()
		r.RequestedAt = &now
	}
	return t, nil
}

// Approve accepts the verification. note is optional.
func (e *VerificationEngine) Approve(r *model.VerificationRecord, note string) (*Transition, error) {
	t, err := e.move(r, ActionApprove, note)
	if err != nil {
		return nil, err
	}
	now := e.now()
	r.ResolvedAt = &now
	return t, nil
}

func (e *VerificationEngine) Reject(r *model.VerificationRecord, reason string) (*Transition, error) {
	if !verificationMachine.CanTransition(ActionReject, r.Status) {
		return nil, NewErrInvalidTransition(ActionReject, string(r.Status), string(model.VerificationRejected))
	}
	if blank(reason) {
		return nil, NewErrMissingReason(ActionReject)
	}
	t, err := e.move(r, ActionReject, reason)
	if err != nil {
		return nil, err
	}
	now := e.now()
	r.ResolvedAt = &now
	return t, nil
}

// Reopen sends a decided verification back to review and clears its resolution time.
func (e *VerificationEngine) Reopen(r *model.VerificationRecord, note string) (*Transition, error) {
	t, err := e.move(r, ActionReopen, note)
	if err != nil {
		return nil, err
	}
	r.ResolvedAt = nil
	return t, nil
}

func (e *VerificationEngine) SetPriority(r *model.VerificationRecord, p model.Priority) (*Transition, error) {
	if !p.Valid() {
		return nil, NewErrInvalidInput("%s: unknown priority %q", ActionSetPriority, p)
	}
	now := e.now()
	r.Priority = p
	r.PrioritySetAt = &now
	t := newTransition(ActionSetPriority, string(r.Status))
	t.PriorityChanged = true
	return t, nil
}

func (e *VerificationEngine) AddNote(r *model.VerificationRecord, text string, author model.NoteAuthor) (*Transition, error) {
	if err := validateNote(ActionAddNote, text, author); err != nil {
		return nil, err
	}
	t := newTransition(ActionAddNote, string(r.Status))
	e.appendNote(r, t, author, text)
	return t, nil
}

// VerifyDocument marks the document at index as checked by an administrator.
func (e *VerificationEngine) VerifyDocument(r *model.VerificationRecord, index int) (*Transition, error) {
	if index < 0 || index >= len(r.Documents) {
		return nil, NewErrInvalidDocument("%s: no document at index %d", ActionVerifyDocument, index)
	}
	t := newTransition(ActionVerifyDocument, string(r.Status))
	doc := &r.Documents[index]
	if doc.Verified {
		return t, nil
	}
	now := e.now()
	doc.Verified = true
	doc.VerifiedAt = &now
	t.VerifiedDocument = doc
	return t, nil
}

// RequiredDocuments returns the catalog entries for the record's account kind.
func (e *VerificationEngine) RequiredDocuments(r *model.VerificationRecord) ([]catalog.Requirement, error) {
	return e.catalog.RequiredDocuments(r.AccountKind)
}

func (e *VerificationEngine) Missing(r *model.VerificationRecord) ([]model.DocumentType, error) {
	return e.catalog.Missing(r.AccountKind, r.Documents)
}

func (e *VerificationEngine) move(r *model.VerificationRecord, action Action, note string) (*Transition, error) {
	rl, _ := verificationMachine.rule(action)
	if !verificationMachine.CanTransition(action, r.Status) {
		return nil, NewErrInvalidTransition(action, string(r.Status), string(rl.to))
	}

	from := r.Status
	r.Status = rl.to
	t := newTransition(action, string(from))
	t.To = string(rl.to)
	t.StateChanged = true

	if !blank(note) {
		e.appendNote(r, t, model.AuthorAdmin, note)
	}
	e.appendNote(r, t, model.AuthorSystem, statusNote(string(from), string(rl.to)))

	t.Event = &Event{
		RecordType: model.RecordTypeVerification,
		RecordID:   r.ID,
		AccountID:  r.AccountID,
		Action:     action,
		OldStatus:  string(from),
		NewStatus:  string(rl.to),
		Reason:     strings.TrimSpace(note),
		OccurredAt: e.now(),
	}
	return t, nil
}

func (e *VerificationEngine) appendNote(r *model.VerificationRecord, t *Transition, author model.NoteAuthor, text string) {
	n := newNote(r.ID, model.RecordTypeVerification, author, text, e.now())
	r.Notes = append(r.Notes, n)
	t.Notes = append(t.Notes, n)
}
