package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"example.com/backstage/services/bipagem/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	RegisterCustomValidations()
}

// ValidateStruct validates a struct using validation tags
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	return nil
}

// IsValidSessionDate checks a YYYY-MM-DD date
func IsValidSessionDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// RegisterCustomValidations registers custom validation functions
func RegisterCustomValidations() {
	validate.RegisterValidation("shift", func(fl validator.FieldLevel) bool {
		return domain.Shift(fl.Field().String()).Valid()
	})

	validate.RegisterValidation("area", func(fl validator.FieldLevel) bool {
		return domain.Area(fl.Field().String()).Valid()
	})

	validate.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
		return domain.ReportStatus(fl.Field().String()).Valid()
	})

	validate.RegisterValidation("session_date", func(fl validator.FieldLevel) bool {
		return IsValidSessionDate(fl.Field().String())
	})

	validate.RegisterValidation("collaborator", func(fl validator.FieldLevel) bool {
		return domain.ValidateCollaborator(fl.Field().String()) == nil
	})

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ValidationMessage turns validator errors into a short client-facing message
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
