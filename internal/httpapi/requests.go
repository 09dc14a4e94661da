package httpapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gtnulled/despensa_api/internal/items"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return strings.TrimSpace(field.String()) != ""
	})
	validate.RegisterValidation("trimmedemail", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		email := strings.TrimSpace(field.String())
		if email == "" {
			return false
		}
		if len(email) > 254 {
			return false
		}
		return validate.Var(email, "email") == nil
	})
}

type SignUpDTO struct {
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Password string `json:"password" validate:"required,notblank,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,notblank,max=200"`
}

func (r *SignUpDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Email": {
				"required":     "email, password and full name are required",
				"notblank":     "email, password and full name are required",
				"trimmedemail": "invalid email",
			},
			"Password": {
				"required": "email, password and full name are required",
				"notblank": "email, password and full name are required",
				"min":      "password must be at least 6 characters",
				"max":      "password is too long",
			},
			"FullName": {
				"required": "email, password and full name are required",
				"notblank": "email, password and full name are required",
				"max":      "full name is too long",
			},
		}, "invalid request")
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Password string `json:"password" validate:"required,notblank,max=72"`
}

func (r *LoginDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Email": {
				"required":     "email and password are required",
				"notblank":     "email and password are required",
				"trimmedemail": "invalid email",
			},
			"Password": {
				"required": "email and password are required",
				"notblank": "email and password are required",
			},
		}, "invalid request")
	}
	return nil
}

type ItemCreateDTO struct {
	Name     string     `json:"name" validate:"required,notblank,max=200"`
	Quantity float64    `json:"quantity" validate:"gte=0"`
	Unit     items.Unit `json:"unit" validate:"required,oneof=kg unidade"`
	Category string     `json:"category" validate:"omitempty,max=100"`
}

func (r *ItemCreateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Name": {
				"required": "name is required",
				"notblank": "name is required",
				"max":      "name is too long",
			},
			"Quantity": {
				"gte": "quantity must not be negative",
			},
			"Unit": {
				"required": "invalid unit",
				"oneof":    "invalid unit",
			},
			"Category": {
				"max": "category is too long",
			},
		}, "invalid request")
	}
	return nil
}

type WithdrawDTO struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
}

func (r *WithdrawDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Quantity": {
				"required": "quantity must be positive",
				"gt":       "quantity must be positive",
			},
		}, "invalid request")
	}
	return nil
}

func validationMessage(err error, messages map[string]map[string]string, fallback string) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.New(fallback)
	}
	for _, valErr := range valErrs {
		if fieldMessages, ok := messages[valErr.Field()]; ok {
			if msg, ok := fieldMessages[valErr.Tag()]; ok {
				return errors.New(msg)
			}
			if msg, ok := fieldMessages["*"]; ok {
				return errors.New(msg)
			}
		}
	}
	return errors.New(fallback)
}
