package web

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/campsite/internal/calendar"
)

var contactPattern = regexp.MustCompile(`^(.+)@(\S+)$`)

type bookRequest struct {
	Name  string         `json:"name" validate:"required"`
	Email string         `json:"email" validate:"required,contact"`
	Start *calendar.Date `json:"start" validate:"required"`
	End   *calendar.Date `json:"end" validate:"required"`
}

type updateRequest struct {
	Name  *string        `json:"name"`
	Email *string        `json:"email" validate:"omitnil,contact"`
	Start *calendar.Date `json:"start"`
	End   *calendar.Date `json:"end"`
}

// violationMessages is keyed by "<json field>.<tag>".
var violationMessages = map[string]string{
	"name.required":  "Name cannot be missing or empty",
	"email.required": "Email cannot be missing or empty",
	"email.contact":  "Not a valid Email",
	"start.required": "Start date cannot be missing or empty",
	"end.required":   "End date cannot be missing or empty",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		return contactPattern.MatchString(fl.Field().String())
	})
	return v
}

var validate = newValidator()

// validateRequest returns a single human-readable message for the first failing field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := violationMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
