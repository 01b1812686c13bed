package workflow

import (
	"slices"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type Action string

const (
	ActionRequestVerification Action = "request_verification"
	ActionSubmitDocuments     Action = "submit_documents"
	ActionStartReview         Action = "start_review"
	ActionApprove             Action = "approve"
	ActionReject              Action = "reject"
	ActionReopen              Action = "reopen"
	ActionSetPriority         Action = "set_priority"
	ActionAddNote             Action = "add_note"
	ActionVerifyDocument      Action = "verify_document"

	ActionApply            Action = "apply"
	ActionMarkReviewed     Action = "mark_reviewed"
	ActionShortlist        Action = "shortlist"
	ActionFlagShortlist    Action = "flag_shortlist"
	ActionUnshortlist      Action = "unshortlist"
	ActionCallForInterview Action = "call_for_interview"
	ActionSelect           Action = "select"
	ActionMakeOffer        Action = "make_offer"
	ActionAccept           Action = "accept"
	ActionRevertStatus     Action = "revert_status"
)

// rule describes one status-changing action: the statuses it may start from,
// where it leads and, for the hiring pipeline, the stage that must be reached first.
type rule[S ~string] struct {
	from         []S
	to           S
	prerequisite S
}

// stateMachine enforces status transitions keyed by action, so that an action
// can only use the edges it owns (reopen is the only way out of a decision).
type stateMachine[S ~string] struct {
	rules map[Action]rule[S]
}

func (sm stateMachine[S]) rule(action Action) (rule[S], bool) {
	r, ok := sm.rules[action]
	return r, ok
}

// CanTransition checks if action may run from status.
func (sm stateMachine[S]) CanTransition(action Action, from S) bool {
	r, ok := sm.rules[action]
	if !ok {
		return false
	}
	return slices.Contains(r.from, from)
}

// AllowedActions returns the status-changing actions available from status.
func (sm stateMachine[S]) AllowedActions(from S) []Action {
	actions := make([]Action, 0)
	for action, r := range sm.rules {
		if slices.Contains(r.from, from) {
			actions = append(actions, action)
		}
	}
	slices.Sort(actions)
	return actions
}

var verificationMachine = stateMachine[model.VerificationStatus]{rules: map[Action]rule[model.VerificationStatus]{
	ActionStartReview: {from: []model.VerificationStatus{model.VerificationPending}, to: model.VerificationUnderReview},
	ActionApprove:     {from: []model.VerificationStatus{model.VerificationUnderReview}, to: model.VerificationApproved},
	ActionReject:      {from: []model.VerificationStatus{model.VerificationUnderReview}, to: model.VerificationRejected},
	ActionReopen:      {from: []model.VerificationStatus{model.VerificationApproved, model.VerificationRejected}, to: model.VerificationUnderReview},
}}

var nonTerminalApplication = []model.ApplicationStatus{
	model.ApplicationApplied,
	model.ApplicationReviewed,
	model.ApplicationShortlisted,
	model.ApplicationInterviewCalled,
	model.ApplicationSelected,
	model.ApplicationOffered,
}

var applicationMachine = stateMachine[model.ApplicationStatus]{rules: map[Action]rule[model.ApplicationStatus]{
	ActionMarkReviewed: {
		from: []model.ApplicationStatus{model.ApplicationApplied},
		to:   model.ApplicationReviewed,
	},
	ActionShortlist: {
		from: []model.ApplicationStatus{model.ApplicationApplied, model.ApplicationReviewed},
		to:   model.ApplicationShortlisted,
	},
	ActionCallForInterview: {
		from:         []model.ApplicationStatus{model.ApplicationShortlisted},
		to:           model.ApplicationInterviewCalled,
		prerequisite: model.ApplicationShortlisted,
	},
	ActionSelect: {
		from:         []model.ApplicationStatus{model.ApplicationShortlisted, model.ApplicationInterviewCalled},
		to:           model.ApplicationSelected,
		prerequisite: model.ApplicationShortlisted,
	},
	ActionMakeOffer: {
		from:         []model.ApplicationStatus{model.ApplicationSelected},
		to:           model.ApplicationOffered,
		prerequisite: model.ApplicationSelected,
	},
	ActionAccept: {
		from:         []model.ApplicationStatus{model.ApplicationOffered},
		to:           model.ApplicationAccepted,
		prerequisite: model.ApplicationOffered,
	},
	ActionReject: {
		from: nonTerminalApplication,
		to:   model.ApplicationRejected,
	},
}}

// VerificationActions lists the status-changing actions available from status.
func VerificationActions(status model.VerificationStatus) []Action {
	return verificationMachine.AllowedActions(status)
}

func ApplicationActions(status model.ApplicationStatus) []Action {
	return applicationMachine.AllowedActions(status)
}
