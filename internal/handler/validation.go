package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"taskapi/internal/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const MsgInvalidBody = "Invalid request body."

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator and
// makes field errors use json/form names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("future", futureTime)
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func futureTime(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	return ok && t.After(time.Now())
}

// bindingError turns a gin binding failure into a 400 apperror, listing each
// failed field when the validator produced them.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.BadRequest(MsgInvalidBody)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apperror.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "future":
		return fmt.Sprintf("%s must be in the future", name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be at least %s characters long", name, fe.Param())
		}
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s length must be less than or equal to %s characters long", name, fe.Param())
		}
		return fmt.Sprintf("%s must be less than or equal to %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
