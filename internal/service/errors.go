package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrVerificationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "verification")
}

func NewErrApplicationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "application")
}

func NewErrAccountNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "account")
}

func NewErrPostingNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job posting")
}

// ErrForbidden is returned when the caller's role does not allow the action.
type ErrForbidden struct {
	error
}

func NewErrForbidden(action string, subject string) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("%s is not allowed to perform %s", subject, action)}
}

type ErrDuplicateApplication struct {
	error
}

func NewErrDuplicateApplication(postingID, accountID uuid.UUID) *ErrDuplicateApplication {
	return &ErrDuplicateApplication{fmt.Errorf("account %s already applied to job posting %s", accountID, postingID)}
}

type ErrDuplicateAccount struct {
	error
}

func NewErrDuplicateAccount(email string) *ErrDuplicateAccount {
	return &ErrDuplicateAccount{fmt.Errorf("an account with email %s already exists", email)}
}

type ErrUnknownAction struct {
	error
}

func NewErrUnknownAction(recordType, action string) *ErrUnknownAction {
	return &ErrUnknownAction{fmt.Errorf("unknown %s action %q", recordType, action)}
}

type ErrInvalidPayload struct {
	error
}

func NewErrInvalidPayload(action string, err error) *ErrInvalidPayload {
	return &ErrInvalidPayload{fmt.Errorf("invalid payload for %s: %w", action, err)}
}

// ErrDocumentNotStored is returned when a submitted storage reference does not
// resolve in the document store.
type ErrDocumentNotStored struct {
	error
}

func NewErrDocumentNotStored(ref string, err error) *ErrDocumentNotStored {
	return &ErrDocumentNotStored{fmt.Errorf("document %q not found in storage: %w", ref, err)}
}
