package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/thoas/go-funk"
)

var (
	languageCodeRegex = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)
	colorCodeRegex    = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

func languageCodeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return languageCodeRegex.MatchString(val)
}

func colorCodeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	// the color is optional
	if val == "" {
		return true
	}
	return colorCodeRegex.MatchString(val)
}

func logicalTestCodeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.LogicalTestCode)
	if !ok {
		return false
	}
	return funk.Contains(model.LogicalTestCodes, val)
}

func questionTypeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(model.QuestionType)
	if !ok {
		return false
	}
	switch val {
	case model.QuestionTypeDomino, model.QuestionTypeImageMCQ, model.QuestionTypeTextMCQ:
		return true
	default:
		return false
	}
}

func decisionValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(lifecycle.Decision)
	if !ok {
		return false
	}
	_, err := lifecycle.ParseDecision(string(val))
	return err == nil
}

func uuidValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(uuid.UUID)
	if !ok {
		return false
	}
	return val != uuid.Nil
}
