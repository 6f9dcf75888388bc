package models

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	aadharPattern = regexp.MustCompile(`^\d{12}$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

// fieldMessages maps json field name and failed tag to the message shown next to the field
var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"min":      "Name must be at least 3 characters",
	},
	"universityName": {"required": "University name is required"},
	"branch":         {"required": "Branch is required"},
	"teamName":       {"required": "Team name is required"},
	"mobileNo": {
		"required": "Mobile number is required",
		"mobile":   "Enter a valid 10 digit mobile number",
	},
	"email": {
		"required": "Email is required",
		"email":    "Enter a valid email address",
	},
	"aadharNo": {
		"required": "Aadhar number is required",
		"aadhar":   "Aadhar number must be 12 digits",
	},
	"sportId":   {"required": "Please select a sport to continue"},
	"sportName": {"required": "Please select a sport to continue"},
	"amount":    {"gt": "Amount must be greater than zero"},
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobilePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("aadhar", func(fl validator.FieldLevel) bool {
			return aadharPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// validateStruct runs the tag rules on v and folds failures into out
func validateStruct(v interface{}, out *ValidationError) {
	err := validatorInstance().Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("form", err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := fieldMessages[field][fe.Tag()]
		if !ok {
			msg = field + " is invalid"
		}
		out.Add(field, msg)
	}
}

// Validate checks a create-order request before anything is persisted
func (r CreateOrderRequest) Validate() error {
	verr := &ValidationError{}
	validateStruct(r, verr)
	return verr.OrNil()
}
