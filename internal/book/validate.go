package book

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("year_read", func(fl validator.FieldLevel) bool {
		y := int(fl.Field().Int())
		return y >= 1900 && y <= time.Now().Year()
	})
	_ = validate.RegisterValidation("rating_range", func(fl validator.FieldLevel) bool {
		r := fl.Field().Int()
		return r >= 1 && r <= 5
	})
}

// ValidationError describes one invalid field of a create or update input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate reports every invalid field of a create input.
func (in CreateInput) Validate() []ValidationError {
	return runValidator(in)
}

// Validate reports every invalid field of a partial update. A supplied but
// blank title is rejected; an absent title is fine.
func (in UpdateInput) Validate() []ValidationError {
	errs := runValidator(in)
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title must not be empty"})
	}
	return errs
}

func runValidator(s interface{}) []ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, fieldErr := range err.(validator.ValidationErrors) {
		field := fieldErr.Field()
		fieldName := strings.ToLower(field[:1]) + field[1:]

		var message string
		switch fieldErr.Tag() {
		case "notblank":
			message = fmt.Sprintf("%s must not be empty", fieldName)
		case "year_read":
			message = fmt.Sprintf("%s must be between 1900 and %d", fieldName, time.Now().Year())
		case "rating_range":
			message = fmt.Sprintf("%s must be between 1 and 5", fieldName)
		default:
			message = fmt.Sprintf("%s is invalid", fieldName)
		}

		errs = append(errs, ValidationError{Field: fieldName, Message: message})
	}
	return errs
}
