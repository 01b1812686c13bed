package workflow

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when action cannot move the record from its current status.
type ErrInvalidTransition struct {
	error
	Action Action
	From   string
	To     string
}

func NewErrInvalidTransition(action Action, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{
		error:  fmt.Errorf("%s: transition from %s to %s is not allowed", action, from, to),
		Action: action,
		From:   from,
		To:     to,
	}
}

type ErrInvalidState struct {
	error
	Action Action
	Status string
}

func NewErrInvalidState(action Action, status string, reason string) *ErrInvalidState {
	return &ErrInvalidState{
		error:  fmt.Errorf("%s: record in status %s: %s", action, status, reason),
		Action: action,
		Status: status,
	}
}

// ErrPrerequisiteNotMet is returned when an application skips a required earlier stage.
type ErrPrerequisiteNotMet struct {
	error
	Action       Action
	Status       string
	Prerequisite string
}

func NewErrPrerequisiteNotMet(action Action, status, prerequisite string) *ErrPrerequisiteNotMet {
	return &ErrPrerequisiteNotMet{
		error:        fmt.Errorf("%s: application in status %s has not reached %s", action, status, prerequisite),
		Action:       action,
		Status:       status,
		Prerequisite: prerequisite,
	}
}

type ErrAlreadyTerminal struct {
	error
	Action Action
	Status string
}

func NewErrAlreadyTerminal(action Action, status string) *ErrAlreadyTerminal {
	return &ErrAlreadyTerminal{
		error:  fmt.Errorf("%s: application is closed with status %s", action, status),
		Action: action,
		Status: status,
	}
}

// ErrClosed is returned when documents are submitted to a resolved verification.
type ErrClosed struct {
	error
	Action Action
	Status string
}

func NewErrClosed(action Action, status string) *ErrClosed {
	return &ErrClosed{
		error:  fmt.Errorf("%s: verification is closed with status %s", action, status),
		Action: action,
		Status: status,
	}
}

type ErrMissingReason struct {
	error
	Action Action
}

func NewErrMissingReason(action Action) *ErrMissingReason {
	return &ErrMissingReason{error: fmt.Errorf("%s: a non-empty reason is required", action), Action: action}
}

// ErrConcurrentModification is returned when the record changed since it was read.
type ErrConcurrentModification struct {
	error
	RecordID uuid.UUID
	Expected int
	Actual   int
}

func NewErrConcurrentModification(id uuid.UUID, expected, actual int) *ErrConcurrentModification {
	msg := fmt.Errorf("record %s was modified concurrently (expected version %d)", id, expected)
	if actual > 0 {
		msg = fmt.Errorf("record %s was modified concurrently (expected version %d, found %d)", id, expected, actual)
	}
	return &ErrConcurrentModification{error: msg, RecordID: id, Expected: expected, Actual: actual}
}

type ErrInvalidDocument struct {
	error
}

func NewErrInvalidDocument(format string, args ...any) *ErrInvalidDocument {
	return &ErrInvalidDocument{fmt.Errorf(format, args...)}
}

type ErrInvalidInput struct {
	error
}

func NewErrInvalidInput(format string, args ...any) *ErrInvalidInput {
	return &ErrInvalidInput{fmt.Errorf(format, args...)}
}

type ErrPostingClosed struct {
	error
	PostingID uuid.UUID
}

func NewErrPostingClosed(id uuid.UUID) *ErrPostingClosed {
	return &ErrPostingClosed{error: fmt.Errorf("job posting %s no longer accepts applications", id), PostingID: id}
}
