package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewCandidatureValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("entity_id", uuidValidator),
		},
		{
			Rule: registerFn("decision", decisionValidator),
		},
	}
}

func NewCatalogValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("langcode", languageCodeValidator),
		},
		{
			Rule: registerFn("colorcode", colorCodeValidator),
		},
		{
			Rule: registerFn("logical_test_code", logicalTestCodeValidator),
		},
		{
			Rule: registerFn("question_type", questionTypeValidator),
		},
		{
			Rule: registerFn("entity_id", uuidValidator),
		},
	}
}
