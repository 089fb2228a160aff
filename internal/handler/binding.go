package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs custom binding validations on gin's validator
// engine. Call once before serving.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("futuredate", futureDate)
	}
}

// futureDate rejects timestamps that are already in the past. The service
// layer re-checks; this only short-circuits obviously stale requests.
func futureDate(fl validator.FieldLevel) bool {
	ts, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return ts.After(time.Now())
}
