package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/log"
)

type AccountForm struct {
	Kind        model.AccountKind `json:"kind" validate:"required,account_kind"`
	DisplayName string            `json:"displayName" validate:"required,not_blank,max=200"`
	Email       string            `json:"email" validate:"required,email"`
}

type AccountService struct {
	store  store.Store
	engine *workflow.VerificationEngine
}

func NewAccountService(s store.Store, engine *workflow.VerificationEngine) *AccountService {
	return &AccountService{store: s, engine: engine}
}

// Register creates the account together with its pending verification record.
func (s *AccountService) Register(ctx context.Context, form AccountForm) (*model.Account, error) {
	tracer := log.NewDebugLogger("account_service").
		WithContext(ctx).
		Operation("register_account").
		WithString("kind", string(form.Kind)).
		Build()

	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, NewErrForbidden("register account", user.Subject)
	}

	account := model.Account{
		ID:          uuid.New(),
		Kind:        form.Kind,
		DisplayName: strings.TrimSpace(form.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(form.Email)),
	}
	record, err := s.engine.NewRecord(account)
	if err != nil {
		tracer.Failure(err).Log()
		return nil, err
	}
	account.CreatedAt = record.CreatedAt

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Account().Create(ctx, account)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrDuplicateAccount(account.Email)
		}
		return nil, err
	}
	verification, err := s.store.Verification().Create(ctx, record)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	created.Verification = verification
	tracer.Success().WithUUID("account_id", created.ID).WithUUID("verification_id", verification.ID).Log()
	return created, nil
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && !user.Owns(id) {
		return nil, NewErrForbidden("read account", user.Subject)
	}
	account, err := s.store.Account().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAccountNotFound(id)
		}
		return nil, err
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, kind *model.AccountKind) (model.AccountList, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, NewErrForbidden("list accounts", user.Subject)
	}
	return s.store.Account().List(ctx, kind)
}

// Delete removes the account with its verification record, documents and notes.
// Applications stay as the permanent hiring record.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	user, _, err := actor(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return NewErrForbidden("delete account", user.Subject)
	}

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Account().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrAccountNotFound(id)
		}
		return err
	}
	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	log.NewDebugLogger("account_service").
		WithContext(ctx).
		Operation("delete_account").
		WithUUID("account_id", id).
		Build().
		Success().
		Log()
	return nil
}
