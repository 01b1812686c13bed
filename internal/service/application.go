package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/log"
	"github.com/careerlink/portal-engine/pkg/metrics"
)

// actions a candidate may perform on their own application
var applicationHolderActions = []workflow.Action{
	workflow.ActionAccept,
	workflow.ActionAddNote,
}

type ApplicationService struct {
	store    store.Store
	engine   *workflow.ApplicationEngine
	notifier Notifier
}

func NewApplicationService(s store.Store, engine *workflow.ApplicationEngine, notifier Notifier) *ApplicationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ApplicationService{store: s, engine: engine, notifier: notifier}
}

type ApplicationFilter struct {
	JobPostingID   *uuid.UUID
	OrganizationID *uuid.UUID
	AccountID      *uuid.UUID
	Statuses       []model.ApplicationStatus
	OpenOnly       bool
	OnShortlist    bool
	Limit          int
	Offset         int
}

// Apply creates the application of accountID to postingID.
func (s *ApplicationService) Apply(ctx context.Context, postingID, accountID uuid.UUID) (result *Result[model.ApplicationRecord], err error) {
	tracer := log.NewDebugLogger("application_service").
		WithContext(ctx).
		Operation(string(workflow.ActionApply)).
		WithUUID("job_posting_id", postingID).
		WithUUID("account_id", accountID).
		Build()

	defer func() {
		metrics.IncreaseTransitionMetric(model.RecordTypeApplication, string(workflow.ActionApply), outcome(err))
		if err != nil {
			tracer.Failure(err).Log()
		}
	}()

	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(accountID) {
		return nil, NewErrForbidden(string(workflow.ActionApply), user.Subject)
	}

	posting, err := s.store.Posting().Get(ctx, postingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPostingNotFound(postingID)
		}
		return nil, err
	}
	account, err := s.store.Account().Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAccountNotFound(accountID)
		}
		return nil, err
	}

	record, t, err := s.engine.NewApplication(*posting, *account)
	if err != nil {
		return nil, err
	}

	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Application().Create(txCtx, *record); err != nil {
		_, _ = store.Rollback(txCtx)
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateApplication(postingID, accountID)
		}
		return nil, err
	}
	if err := persistNotes(txCtx, s.store, t); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, err
	}
	if _, err := store.Commit(txCtx); err != nil {
		return nil, err
	}
	tracer.Step("record_stored").WithUUID("record_id", record.ID).Log()

	result = &Result[model.ApplicationRecord]{Record: *record}
	publish(ctx, s.notifier, tracer, t, result)

	if fresh, err := s.store.Application().Get(ctx, record.ID); err == nil {
		result.Record = *fresh
	}

	tracer.Success().WithUUID("record_id", record.ID).Log()
	return result, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*model.ApplicationRecord, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Application().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrApplicationNotFound(id)
		}
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(record.AccountID) && !user.Owns(record.OrganizationID) {
		return nil, NewErrForbidden("read application", user.Subject)
	}
	return record, nil
}

// List returns applications matching filter. Account holders only see their own
// candidacies, or the ones sent to their organization.
func (s *ApplicationService) List(ctx context.Context, filter ApplicationFilter) (model.ApplicationList, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	qf := store.NewApplicationQueryFilter()
	if !user.IsAdmin() {
		switch {
		case filter.AccountID != nil && user.Owns(*filter.AccountID):
		case filter.OrganizationID != nil && user.Owns(*filter.OrganizationID):
		default:
			return nil, NewErrForbidden("list applications", user.Subject)
		}
	}
	if filter.JobPostingID != nil {
		qf = qf.ByJobPosting(*filter.JobPostingID)
	}
	if filter.OrganizationID != nil {
		qf = qf.ByOrganization(*filter.OrganizationID)
	}
	if filter.AccountID != nil {
		qf = qf.ByAccount(*filter.AccountID)
	}
	if len(filter.Statuses) > 0 {
		qf = qf.ByStatus(filter.Statuses...)
	}
	if filter.OpenOnly {
		qf = qf.Open()
	}
	if filter.OnShortlist {
		qf = qf.OnShortlist()
	}
	opts := store.NewListOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithPage(filter.Limit, filter.Offset)
	}
	return s.store.Application().List(ctx, qf, opts)
}

func (s *ApplicationService) Notes(ctx context.Context, id uuid.UUID) (model.NoteList, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Notes, nil
}

func (s *ApplicationService) MarkReviewed(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionMarkReviewed, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.MarkReviewed(a)
	})
}

func (s *ApplicationService) Shortlist(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionShortlist, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Shortlist(a)
	})
}

func (s *ApplicationService) FlagShortlist(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionFlagShortlist, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.FlagShortlist(a)
	})
}

func (s *ApplicationService) Unshortlist(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionUnshortlist, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Unshortlist(a)
	})
}

func (s *ApplicationService) CallForInterview(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionCallForInterview, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.CallForInterview(a)
	})
}

func (s *ApplicationService) Select(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionSelect, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Select(a)
	})
}

func (s *ApplicationService) MakeOffer(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionMakeOffer, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.MakeOffer(a)
	})
}

func (s *ApplicationService) Accept(ctx context.Context, target Target) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionAccept, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Accept(a)
	})
}

func (s *ApplicationService) Reject(ctx context.Context, target Target, reason string) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionReject, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Reject(a, reason)
	})
}

func (s *ApplicationService) RevertStatus(ctx context.Context, target Target, status model.ApplicationStatus, reason string) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionRevertStatus, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.RevertStatus(a, status, reason)
	})
}

func (s *ApplicationService) SetPriority(ctx context.Context, target Target, p model.Priority) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionSetPriority, func(a *model.ApplicationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.SetPriority(a, p)
	})
}

func (s *ApplicationService) AddNote(ctx context.Context, target Target, text string) (*Result[model.ApplicationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionAddNote, func(a *model.ApplicationRecord, author model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.AddNote(a, text, author)
	})
}

type applicationAction func(a *model.ApplicationRecord, author model.NoteAuthor) (*workflow.Transition, error)

func (s *ApplicationService) mutate(ctx context.Context, target Target, action workflow.Action, apply applicationAction) (result *Result[model.ApplicationRecord], err error) {
	tracer := log.NewDebugLogger("application_service").
		WithContext(ctx).
		Operation(string(action)).
		WithUUID("record_id", target.ID).
		Build()

	defer func() {
		metrics.IncreaseTransitionMetric(model.RecordTypeApplication, string(action), outcome(err))
		if err != nil {
			tracer.Failure(err).Log()
		}
	}()

	user, author, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Application().Get(ctx, target.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrApplicationNotFound(target.ID)
		}
		return nil, err
	}
	tracer.Step("record_loaded").
		WithString("status", string(record.Status)).
		WithInt("version", record.Version).
		Log()

	if err := authorize(user, action, record.AccountID, applicationHolderActions...); err != nil {
		return nil, err
	}
	if err := checkVersion(record.ID, target.ExpectedVersion, record.Version); err != nil {
		return nil, err
	}

	t, err := apply(record, author)
	if err != nil {
		return nil, err
	}

	result = &Result[model.ApplicationRecord]{Record: *record}
	if t.Noop() {
		tracer.Success().WithBool("noop", true).Log()
		return result, nil
	}

	if err := s.persist(ctx, record, t); err != nil {
		return nil, err
	}
	tracer.Step("record_stored").
		WithString("status", string(record.Status)).
		WithInt("version", record.Version).
		Log()

	publish(ctx, s.notifier, tracer, t, result)
	if user.IsAdmin() {
		metrics.UniqueReviewersPerWeek.Observe(user.Subject)
	}

	if fresh, err := s.store.Application().Get(ctx, record.ID); err == nil {
		result.Record = *fresh
	}

	tracer.Success().WithString("status", string(result.Record.Status)).Log()
	return result, nil
}

func (s *ApplicationService) persist(ctx context.Context, a *model.ApplicationRecord, t *workflow.Transition) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		_, _ = store.Rollback(ctx)
		return err
	}

	if t.StateChanged {
		read := a.Version
		if err := s.store.Application().UpdateState(ctx, a); err != nil {
			if errors.Is(err, store.ErrStaleVersion) {
				return fail(workflow.NewErrConcurrentModification(a.ID, read, 0))
			}
			return fail(err)
		}
	}
	if t.PriorityChanged {
		if err := s.store.Application().SetPriority(ctx, a.ID, a.Priority, *a.PrioritySetAt); err != nil {
			return fail(err)
		}
	}
	if err := persistNotes(ctx, s.store, t); err != nil {
		return fail(err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}
	return nil
}
