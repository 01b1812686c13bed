package workflow

import (
	"strings"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store/model"
)

// ApplicationEngine applies hiring pipeline actions to in-memory application records.
type ApplicationEngine struct {
	base
}

func NewApplicationEngine(opts ...Option) *ApplicationEngine {
	return &ApplicationEngine{base: newBase(opts...)}
}

// NewApplication creates the record for account applying to posting.
func (e *ApplicationEngine) NewApplication(posting model.JobPosting, account model.Account) (*model.ApplicationRecord, *Transition, error) {
	if account.Kind != model.AccountKindIndividual {
		return nil, nil, NewErrInvalidState(ActionApply, string(account.Kind), "only individual accounts can apply")
	}
	now := e.now()
	if !posting.Open(now) {
		return nil, nil, NewErrPostingClosed(posting.ID)
	}

	a := &model.ApplicationRecord{
		ID:             uuid.New(),
		CreatedAt:      now,
		JobPostingID:   posting.ID,
		AccountID:      account.ID,
		OrganizationID: posting.OrganizationID,
		Status:         model.ApplicationApplied,
		Priority:       model.DefaultPriority,
		AppliedAt:      now,
		Version:        1,
		Notes:          model.NoteList{},
	}
	t := newTransition(ActionApply, "")
	t.To = string(model.ApplicationApplied)
	t.StateChanged = true
	e.appendNote(a, t, model.AuthorSystem, "application submitted for "+posting.Title)
	t.Event = e.event(a, ActionApply, "", model.ApplicationApplied, "")
	return a, t, nil
}

func (e *ApplicationEngine) MarkReviewed(a *model.ApplicationRecord) (*Transition, error) {
	return e.move(a, ActionMarkReviewed, "")
}

// Shortlist moves the application to shortlisted and flags it. The first
// shortlisting time is kept.
func (e *ApplicationEngine) Shortlist(a *model.ApplicationRecord) (*Transition, error) {
	t, err := e.move(a, ActionShortlist, "")
	if err != nil {
		return nil, err
	}
	a.ShortlistFlag = true
	if a.ShortlistedAt == nil {
		now := e.now()
		a.ShortlistedAt = &now
	}
	return t, nil
}

// FlagShortlist puts an applied or reviewed application on the shortlist without
// moving it along the pipeline.
func (e *ApplicationEngine) FlagShortlist(a *model.ApplicationRecord) (*Transition, error) {
	if a.Status.Terminal() {
		return nil, NewErrAlreadyTerminal(ActionFlagShortlist, string(a.Status))
	}
	if a.Status != model.ApplicationApplied && a.Status != model.ApplicationReviewed {
		return nil, NewErrInvalidState(ActionFlagShortlist, string(a.Status), "application is already past the shortlist stage")
	}
	t := newTransition(ActionFlagShortlist, string(a.Status))
	if a.ShortlistFlag {
		return t, nil
	}
	a.ShortlistFlag = true
	t.StateChanged = true
	e.appendNote(a, t, model.AuthorSystem, "added to shortlist")
	return t, nil
}

// Unshortlist takes the application off the shortlist. A shortlisted application
// goes back to reviewed; later stages must be reverted first.
func (e *ApplicationEngine) Unshortlist(a *model.ApplicationRecord) (*Transition, error) {
	if a.Status.Terminal() {
		return nil, NewErrAlreadyTerminal(ActionUnshortlist, string(a.Status))
	}
	t := newTransition(ActionUnshortlist, string(a.Status))
	switch a.Status {
	case model.ApplicationShortlisted:
		a.Status = model.ApplicationReviewed
		a.ShortlistFlag = false
		t.To = string(a.Status)
		t.StateChanged = true
		e.appendNote(a, t, model.AuthorSystem, statusNote(t.From, t.To))
		t.Event = e.event(a, ActionUnshortlist, model.ApplicationShortlisted, a.Status, "")
	case model.ApplicationApplied, model.ApplicationReviewed:
		if !a.ShortlistFlag {
			return nil, NewErrInvalidState(ActionUnshortlist, string(a.Status), "application is not on the shortlist")
		}
		a.ShortlistFlag = false
		t.StateChanged = true
		e.appendNote(a, t, model.AuthorSystem, "removed from shortlist")
	default:
		return nil, NewErrInvalidTransition(ActionUnshortlist, string(a.Status), string(model.ApplicationReviewed))
	}
	return t, nil
}

func (e *ApplicationEngine) CallForInterview(a *model.ApplicationRecord) (*Transition, error) {
	return e.move(a, ActionCallForInterview, "")
}

func (e *ApplicationEngine) Select(a *model.ApplicationRecord) (*Transition, error) {
	return e.move(a, ActionSelect, "")
}

func (e *ApplicationEngine) MakeOffer(a *model.ApplicationRecord) (*Transition, error) {
	return e.move(a, ActionMakeOffer, "")
}

func (e *ApplicationEngine) Accept(a *model.ApplicationRecord) (*Transition, error) {
	t, err := e.move(a, ActionAccept, "")
	if err != nil {
		return nil, err
	}
	now := e.now()
	a.ResolvedAt = &now
	return t, nil
}

// Reject closes the application from any open stage. reason is optional.
func (e *ApplicationEngine) Reject(a *model.ApplicationRecord, reason string) (*Transition, error) {
	t, err := e.move(a, ActionReject, reason)
	if err != nil {
		return nil, err
	}
	now := e.now()
	a.ResolvedAt = &now
	return t, nil
}

// RevertStatus is the administrator override that moves an open application back
// to an earlier stage. ShortlistedAt is kept.
func (e *ApplicationEngine) RevertStatus(a *model.ApplicationRecord, target model.ApplicationStatus, reason string) (*Transition, error) {
	if a.Status.Terminal() {
		return nil, NewErrAlreadyTerminal(ActionRevertStatus, string(a.Status))
	}
	if !target.Valid() || target.Terminal() || target.Stage() >= a.Status.Stage() {
		return nil, NewErrInvalidTransition(ActionRevertStatus, string(a.Status), string(target))
	}
	if blank(reason) {
		return nil, NewErrMissingReason(ActionRevertStatus)
	}

	from := a.Status
	a.Status = target
	t := newTransition(ActionRevertStatus, string(from))
	t.To = string(target)
	t.StateChanged = true
	e.appendNote(a, t, model.AuthorAdmin, reason)
	e.appendNote(a, t, model.AuthorSystem, statusNote(string(from), string(target)))
	t.Event = e.event(a, ActionRevertStatus, from, target, reason)
	return t, nil
}

func (e *ApplicationEngine) SetPriority(a *model.ApplicationRecord, p model.Priority) (*Transition, error) {
	if a.Status.Terminal() {
		return nil, NewErrAlreadyTerminal(ActionSetPriority, string(a.Status))
	}
	if !p.Valid() {
		return nil, NewErrInvalidInput("%s: unknown priority %q", ActionSetPriority, p)
	}
	now := e.now()
	a.Priority = p
	a.PrioritySetAt = &now
	t := newTransition(ActionSetPriority, string(a.Status))
	t.PriorityChanged = true
	return t, nil
}

// AddNote appends to the trail. Closed applications still accept notes.
func (e *ApplicationEngine) AddNote(a *model.ApplicationRecord, text string, author model.NoteAuthor) (*Transition, error) {
	if err := validateNote(ActionAddNote, text, author); err != nil {
		return nil, err
	}
	t := newTransition(ActionAddNote, string(a.Status))
	e.appendNote(a, t, author, text)
	return t, nil
}

func (e *ApplicationEngine) move(a *model.ApplicationRecord, action Action, reason string) (*Transition, error) {
	if a.Status.Terminal() {
		return nil, NewErrAlreadyTerminal(action, string(a.Status))
	}
	rl, _ := applicationMachine.rule(action)
	if !applicationMachine.CanTransition(action, a.Status) {
		if rl.prerequisite != "" && a.Status.Stage() < rl.prerequisite.Stage() {
			return nil, NewErrPrerequisiteNotMet(action, string(a.Status), string(rl.prerequisite))
		}
		return nil, NewErrInvalidTransition(action, string(a.Status), string(rl.to))
	}

	from := a.Status
	a.Status = rl.to
	t := newTransition(action, string(from))
	t.To = string(rl.to)
	t.StateChanged = true
	if !blank(reason) {
		e.appendNote(a, t, model.AuthorAdmin, reason)
	}
	e.appendNote(a, t, model.AuthorSystem, statusNote(string(from), string(rl.to)))
	t.Event = e.event(a, action, from, rl.to, reason)
	return t, nil
}

func (e *ApplicationEngine) event(a *model.ApplicationRecord, action Action, from, to model.ApplicationStatus, reason string) *Event {
	org := a.OrganizationID
	return &Event{
		RecordType:     model.RecordTypeApplication,
		RecordID:       a.ID,
		AccountID:      a.AccountID,
		OrganizationID: &org,
		Action:         action,
		OldStatus:      string(from),
		NewStatus:      string(to),
		Reason:         strings.TrimSpace(reason),
		OccurredAt:     e.now(),
	}
}

func (e *ApplicationEngine) appendNote(a *model.ApplicationRecord, t *Transition, author model.NoteAuthor, text string) {
	n := newNote(a.ID, model.RecordTypeApplication, author, text, e.now())
	a.Notes = append(a.Notes, n)
	t.Notes = append(t.Notes, n)
}
