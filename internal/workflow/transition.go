package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store/model"
)

// Clock returns the current time. Engines truncate it to microseconds in UTC
// so timestamps survive a database round trip unchanged.
type Clock func() time.Time

type Option func(*base)

func WithClock(c Clock) Option {
	return func(b *base) {
		b.clock = c
	}
}

type base struct {
	clock Clock
}

func newBase(opts ...Option) base {
	b := base{clock: time.Now}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b base) now() time.Time {
	return b.clock().UTC().Truncate(time.Microsecond)
}

// Event is the notification handed to the notifier after a status change is stored.
type Event struct {
	RecordType string    `json:"recordType"`
	RecordID   uuid.UUID `json:"recordId"`
	AccountID  uuid.UUID `json:"accountId"`
	// OrganizationID is set for applications only.
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	Action         Action     `json:"action"`
	OldStatus      string     `json:"oldStatus"`
	NewStatus      string     `json:"newStatus"`
	Reason         string     `json:"reason,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

// Transition describes what an action changed on a record. The record passed to
// the engine is mutated in place; Transition tells the caller what to persist.
type Transition struct {
	Action Action
	From   string
	To     string
	// StateChanged means header fields other than priority changed and the
	// record must be written under its version check.
	StateChanged    bool
	PriorityChanged bool
	Notes           model.NoteList
	Documents       model.DocumentList
	// VerifiedDocument points into the record's document list.
	VerifiedDocument *model.DocumentSubmission
	Event            *Event
}

func (t *Transition) StatusChanged() bool {
	return t.From != t.To
}

// Noop reports whether nothing has to be written.
func (t *Transition) Noop() bool {
	return !t.StateChanged && !t.PriorityChanged && len(t.Notes) == 0 &&
		len(t.Documents) == 0 && t.VerifiedDocument == nil
}

func newTransition(action Action, status string) *Transition {
	return &Transition{Action: action, From: status, To: status}
}

func statusNote(from, to string) string {
	return fmt.Sprintf("status changed from %s to %s", from, to)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func newNote(recordID uuid.UUID, recordType string, author model.NoteAuthor, text string, at time.Time) model.Note {
	return model.Note{
		RecordID:   recordID,
		RecordType: recordType,
		Text:       strings.TrimSpace(text),
		Author:     author,
		AddedAt:    at,
	}
}

func validateNote(action Action, text string, author model.NoteAuthor) error {
	if blank(text) {
		return NewErrInvalidInput("%s: note text must not be empty", action)
	}
	if author != model.AuthorAdmin && author != model.AuthorAccountHolder {
		return NewErrInvalidInput("%s: unknown note author %q", action, author)
	}
	return nil
}
