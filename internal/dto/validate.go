package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the dd/MM/yyyy format used by every date field of the API.
const DateLayout = "02/01/2006"

// NewValidator returns a validator with the API's custom tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("data", validDate)
	return v
}

func validDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}
