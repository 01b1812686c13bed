package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/store/model"
)

func uuidValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(uuid.UUID)
	if !ok {
		return false
	}
	return val != uuid.UUID{}
}

func notBlankValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(val) != ""
}

func accountKindValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.AccountKind)
	if !ok {
		return false
	}
	return val.Valid()
}

func priorityValidator(fl validator.FieldLevel) bool {
	switch val := fl.Field().Interface().(type) {
	case model.Priority:
		return val.Valid()
	case string:
		return val == "" || model.Priority(val).Valid()
	default:
		return false
	}
}

func applicationStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return val == "" || model.ApplicationStatus(val).Valid()
}

func verificationStatusValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if val == "" {
		return true
	}
	for _, s := range model.VerificationStatuses {
		if string(s) == val {
			return true
		}
	}
	return false
}
