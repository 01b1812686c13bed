package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/handlers/validator"
	"github.com/careerlink/portal-engine/internal/service"
	"github.com/careerlink/portal-engine/internal/workflow"
	"github.com/careerlink/portal-engine/pkg/requestid"
)

// Message is the body of every error response.
type Message struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func statusOf(err error) (int, bool) {
	switch err.(type) {
	case *service.ErrResourceNotFound:
		return http.StatusNotFound, true
	case *service.ErrForbidden:
		return http.StatusForbidden, true
	case *workflow.ErrConcurrentModification,
		*service.ErrDuplicateApplication,
		*service.ErrDuplicateAccount:
		return http.StatusConflict, true
	case *workflow.ErrInvalidTransition,
		*workflow.ErrInvalidState,
		*workflow.ErrPrerequisiteNotMet,
		*workflow.ErrAlreadyTerminal,
		*workflow.ErrClosed,
		*workflow.ErrPostingClosed:
		return http.StatusUnprocessableEntity, true
	case *workflow.ErrMissingReason,
		*workflow.ErrInvalidDocument,
		*workflow.ErrInvalidInput,
		*service.ErrInvalidPayload,
		*service.ErrUnknownAction,
		*service.ErrDocumentNotStored,
		*catalog.ErrUnknownAccountKind,
		*validator.ErrInvalidRequest:
		return http.StatusBadRequest, true
	default:
		return 0, false
	}
}

// StatusFor maps a service error to its HTTP status code.
func StatusFor(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if code, ok := statusOf(e); ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	msg := Message{Message: err.Error(), RequestID: requestid.FromRequest(r)}
	if code == http.StatusInternalServerError {
		zap.S().Named("handlers").Errorw("request failed", "error", err, "path", r.URL.Path, "request_id", msg.RequestID)
		msg.Message = "internal error"
	}
	render.Status(r, code)
	render.JSON(w, r, msg)
}

func badRequest(w http.ResponseWriter, r *http.Request, format string, args ...any) {
	fail(w, r, validator.NewErrInvalidRequest(format, args...))
}
