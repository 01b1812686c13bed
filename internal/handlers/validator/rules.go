package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewAccountValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("account_kind", accountKindValidator),
		},
		{
			Rule: registerFn("not_blank", notBlankValidator),
		},
	}
}

func NewPostingValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("uuid_set", uuidValidator),
		},
		{
			Rule: registerFn("not_blank", notBlankValidator),
		},
	}
}

// NewQueryValidationRules covers the list and statistics query parameters.
func NewQueryValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("priority", priorityValidator),
		},
		{
			Rule: registerFn("application_status", applicationStatusValidator),
		},
		{
			Rule: registerFn("verification_status", verificationStatusValidator),
		},
	}
}
