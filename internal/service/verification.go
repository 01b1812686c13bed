package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/log"
	"github.com/careerlink/portal-engine/pkg/metrics"
)

// actions an account holder may perform on their own verification
var verificationHolderActions = []workflow.Action{
	workflow.ActionRequestVerification,
	workflow.ActionSubmitDocuments,
	workflow.ActionAddNote,
}

// DocumentChecker confirms that a storage reference points at an uploaded object.
type DocumentChecker interface {
	Exists(ctx context.Context, ref string) error
}

type VerificationService struct {
	store    store.Store
	engine   *workflow.VerificationEngine
	notifier Notifier
	docs     DocumentChecker
}

func NewVerificationService(s store.Store, engine *workflow.VerificationEngine, notifier Notifier) *VerificationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &VerificationService{store: s, engine: engine, notifier: notifier}
}

// WithDocumentChecker makes SubmitDocuments reject references missing from storage.
func (s *VerificationService) WithDocumentChecker(c DocumentChecker) *VerificationService {
	s.docs = c
	return s
}

type VerificationFilter struct {
	Statuses    []model.VerificationStatus
	AccountKind *model.AccountKind
	Priority    *model.Priority
	OpenOnly    bool
	Limit       int
	Offset      int
}

type Requirements struct {
	Required  []catalog.Requirement `json:"required"`
	Missing   []model.DocumentType  `json:"missing"`
	Satisfied bool                  `json:"satisfied"`
}

func (s *VerificationService) Get(ctx context.Context, id uuid.UUID) (*model.VerificationRecord, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.store.Verification().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVerificationNotFound(id)
		}
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(record.AccountID) {
		return nil, NewErrForbidden("read verification", user.Subject)
	}
	return record, nil
}

func (s *VerificationService) GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.VerificationRecord, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(accountID) {
		return nil, NewErrForbidden("read verification", user.Subject)
	}
	record, err := s.store.Verification().GetByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAccountNotFound(accountID)
		}
		return nil, err
	}
	return record, nil
}

func (s *VerificationService) List(ctx context.Context, filter VerificationFilter) (model.VerificationList, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, NewErrForbidden("list verifications", user.Subject)
	}

	qf := store.NewVerificationQueryFilter()
	if len(filter.Statuses) > 0 {
		qf = qf.ByStatus(filter.Statuses...)
	}
	if filter.OpenOnly {
		qf = qf.Open()
	}
	if filter.AccountKind != nil {
		qf = qf.ByAccountKind(*filter.AccountKind)
	}
	if filter.Priority != nil {
		qf = qf.ByPriority(*filter.Priority)
	}
	opts := store.NewListOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithPage(filter.Limit, filter.Offset)
	}
	return s.store.Verification().List(ctx, qf, opts)
}

func (s *VerificationService) Notes(ctx context.Context, id uuid.UUID) (model.NoteList, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record.Notes, nil
}

// Requirements reports the catalog documents of the record and which are still missing.
func (s *VerificationService) Requirements(ctx context.Context, id uuid.UUID) (Requirements, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return Requirements{}, err
	}
	required, err := s.engine.RequiredDocuments(record)
	if err != nil {
		return Requirements{}, err
	}
	missing, err := s.engine.Missing(record)
	if err != nil {
		return Requirements{}, err
	}
	return Requirements{Required: required, Missing: missing, Satisfied: len(missing) == 0}, nil
}

func (s *VerificationService) RequestVerification(ctx context.Context, target Target) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionRequestVerification, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.RequestVerification(r)
	})
}

func (s *VerificationService) SubmitDocuments(ctx context.Context, target Target, docs []workflow.DocumentInput) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionSubmitDocuments, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		if s.docs != nil {
			for _, d := range docs {
				if err := s.docs.Exists(ctx, d.StorageReference); err != nil {
					return nil, NewErrDocumentNotStored(d.StorageReference, err)
				}
			}
		}
		return s.engine.SubmitDocuments(r, docs)
	})
}

func (s *VerificationService) StartReview(ctx context.Context, target Target) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionStartReview, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.MoveToUnderReview(r)
	})
}

func (s *VerificationService) Approve(ctx context.Context, target Target, note string) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionApprove, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Approve(r, note)
	})
}

func (s *VerificationService) Reject(ctx context.Context, target Target, reason string) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionReject, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Reject(r, reason)
	})
}

func (s *VerificationService) Reopen(ctx context.Context, target Target, note string) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionReopen, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.Reopen(r, note)
	})
}

func (s *VerificationService) SetPriority(ctx context.Context, target Target, p model.Priority) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionSetPriority, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.SetPriority(r, p)
	})
}

func (s *VerificationService) AddNote(ctx context.Context, target Target, text string) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionAddNote, func(r *model.VerificationRecord, author model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.AddNote(r, text, author)
	})
}

func (s *VerificationService) VerifyDocument(ctx context.Context, target Target, index int) (*Result[model.VerificationRecord], error) {
	return s.mutate(ctx, target, workflow.ActionVerifyDocument, func(r *model.VerificationRecord, _ model.NoteAuthor) (*workflow.Transition, error) {
		return s.engine.VerifyDocument(r, index)
	})
}

type verificationAction func(r *model.VerificationRecord, author model.NoteAuthor) (*workflow.Transition, error)

// mutate loads the record, applies the action and stores what the transition
// reports in one transaction. The event is published after commit.
func (s *VerificationService) mutate(ctx context.Context, target Target, action workflow.Action, apply verificationAction) (result *Result[model.VerificationRecord], err error) {
	tracer := log.NewDebugLogger("verification_service").
		WithContext(ctx).
		Operation(string(action)).
		WithUUID("record_id", target.ID).
		Build()

	defer func() {
		metrics.IncreaseTransitionMetric(model.RecordTypeVerification, string(action), outcome(err))
		if err != nil {
			tracer.Failure(err).Log()
		}
	}()

	user, author, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.store.Verification().Get(ctx, target.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVerificationNotFound(target.ID)
		}
		return nil, err
	}
	tracer.Step("record_loaded").
		WithString("status", string(record.Status)).
		WithInt("version", record.Version).
		Log()

	if err := authorize(user, action, record.AccountID, verificationHolderActions...); err != nil {
		return nil, err
	}
	if err := checkVersion(record.ID, target.ExpectedVersion, record.Version); err != nil {
		return nil, err
	}

	t, err := apply(record, author)
	if err != nil {
		return nil, err
	}

	result = &Result[model.VerificationRecord]{Record: *record}
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

	if fresh, err := s.store.Verification().Get(ctx, record.ID); err == nil {
		result.Record = *fresh
	}

	tracer.Success().WithString("status", string(result.Record.Status)).Log()
	return result, nil
}

func (s *VerificationService) persist(ctx context.Context, r *model.VerificationRecord, t *workflow.Transition) error {
	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		_, _ = store.Rollback(ctx)
		return err
	}

	if t.StateChanged {
		read := r.Version
		if err := s.store.Verification().UpdateState(ctx, r); err != nil {
			if errors.Is(err, store.ErrStaleVersion) {
				return fail(workflow.NewErrConcurrentModification(r.ID, read, 0))
			}
			return fail(err)
		}
	}
	if t.PriorityChanged {
		if err := s.store.Verification().SetPriority(ctx, r.ID, r.Priority, *r.PrioritySetAt); err != nil {
			return fail(err)
		}
	}
	if len(t.Documents) > 0 {
		if _, err := s.store.Verification().AppendDocuments(ctx, t.Documents); err != nil {
			return fail(err)
		}
	}
	if t.VerifiedDocument != nil {
		if err := s.store.Verification().MarkDocumentVerified(ctx, *t.VerifiedDocument); err != nil {
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
