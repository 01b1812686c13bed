package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/auth"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/log"
	"github.com/careerlink/portal-engine/pkg/metrics"
)

// Result is the outcome of a stored action. Warnings report side effects that
// failed after the change was committed, e.g. a notification that could not be queued.
type Result[T any] struct {
	Record   T        `json:"record"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result[T]) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Target identifies the record an action applies to. ExpectedVersion, when set,
// must equal the stored version or the action fails with ErrConcurrentModification.
type Target struct {
	ID              uuid.UUID
	ExpectedVersion *int
}

// actor resolves the caller and the note author matching its role.
func actor(ctx context.Context) (auth.User, model.NoteAuthor, error) {
	user, found := auth.UserFromContext(ctx)
	if !found {
		return auth.User{}, "", NewErrForbidden("any action", "anonymous caller")
	}
	if user.IsAdmin() {
		return user, model.AuthorAdmin, nil
	}
	return user, model.AuthorAccountHolder, nil
}

// authorize lets admins through and account holders only for the listed actions
// on records they own.
func authorize(user auth.User, action workflow.Action, owner uuid.UUID, holderActions ...workflow.Action) error {
	if user.IsAdmin() {
		return nil
	}
	if user.Owns(owner) {
		for _, a := range holderActions {
			if a == action {
				return nil
			}
		}
	}
	return NewErrForbidden(string(action), user.Subject)
}

// checkVersion implements the optional if-match on the version read by the caller.
func checkVersion(id uuid.UUID, expected *int, actual int) error {
	if expected != nil && *expected != actual {
		return workflow.NewErrConcurrentModification(id, *expected, actual)
	}
	return nil
}

// persistNotes appends the transition's notes, one row each.
func persistNotes(ctx context.Context, s store.Store, t *workflow.Transition) error {
	if len(t.Notes) == 0 {
		return nil
	}
	_, err := s.Note().Append(ctx, t.Notes)
	return err
}

// publish hands the event to the notifier. Failures never undo the stored change.
func publish[T any](ctx context.Context, n Notifier, tracer *log.OperationTracer, t *workflow.Transition, result *Result[T]) {
	if t.Event == nil {
		return
	}
	if err := n.Notify(ctx, *t.Event); err != nil {
		metrics.IncreaseNotificationFailureMetric(t.Event.RecordType)
		tracer.Warning("notification_failed").WithError(err).Log()
		result.warn("status changed but the notification could not be sent: %s", err)
	}
}

// outcome maps an action error to the result label of the transitions metric.
func outcome(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	var conflict *workflow.ErrConcurrentModification
	if errors.As(err, &conflict) {
		return metrics.ResultConflict
	}
	switch err.(type) {
	case *workflow.ErrInvalidTransition, *workflow.ErrInvalidState, *workflow.ErrPrerequisiteNotMet,
		*workflow.ErrAlreadyTerminal, *workflow.ErrClosed, *workflow.ErrMissingReason,
		*workflow.ErrInvalidDocument, *workflow.ErrInvalidInput, *workflow.ErrPostingClosed,
		*ErrForbidden, *ErrResourceNotFound, *ErrDocumentNotStored:
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

func notFound(err error, nf *ErrResourceNotFound) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return nf
	}
	return err
}
