package service

import (
	"context"

	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/validator"
)

func authorize(ctx context.Context, a *authz.Authorizer, actor authz.Actor, action authz.Action, resource authz.Resource) error {
	allowed, err := a.Allowed(ctx, actor, action, resource)
	if err != nil {
		return err
	}
	if !allowed {
		logger(ctx, "authz").Infow("action denied", "actor", actor.ID, "role", actor.Role, "action", action)
		return NewErrForbidden(actor.ID, string(action))
	}
	return nil
}

// validateForm maps validation failures to ErrInvalidArgument.
func validateForm(v *validator.Validator, form any) error {
	if err := v.Struct(form); err != nil {
		if fieldErr, ok := err.(*validator.ErrInvalidField); ok {
			return NewErrInvalidArgument(fieldErr.Field, "%s", fieldErr.Error())
		}
		return NewErrInvalidArgument("", "%s", err.Error())
	}
	return nil
}

func newValidator() *validator.Validator {
	v := validator.NewValidator()
	v.Register(validator.NewCatalogValidationRules()...)
	v.Register(validator.NewCandidatureValidationRules()...)
	return v
}
