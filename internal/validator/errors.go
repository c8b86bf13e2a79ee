package validator

import (
	"fmt"
)

type ErrInvalidField struct {
	error
	Field string
	Tag   string
}

func NewErrInvalidField(namespace, field, tag, param string) *ErrInvalidField {
	msg := fmt.Sprintf("field %s failed on rule %q", namespace, tag)
	if param != "" {
		msg = fmt.Sprintf("%s (%s)", msg, param)
	}
	return &ErrInvalidField{error: fmt.Errorf("%s", msg), Field: field, Tag: tag}
}
