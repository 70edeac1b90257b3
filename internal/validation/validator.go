// ForYou - Content-Similarity Title Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/foryou

// Package validation wraps go-playground/validator v10 with a shared
// validator instance, the custom tags used by ForYou and human-readable
// error messages.
//
//	type catalogQuery struct {
//	    Kind string `json:"kind" validate:"required,oneof=movie series"`
//	    Skip int    `json:"skip" validate:"gte=0"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	titleIDPattern = regexp.MustCompile(`^tt[0-9]{7,10}$`)
	regionPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
)

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Errors is returned by ValidateStruct when at least one rule fails.
type Errors struct {
	Fields []FieldError
}

// Error joins the individual messages.
func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator. Struct metadata is cached by the
// validator, so the instance is built exactly once.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report koanf/json names rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"koanf", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("titleid", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
			return titleIDPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
			return regionPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct validates s and returns nil or *Errors.
func ValidateStruct(s interface{}) *Errors {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Errors{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   namespace(fe),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return &Errors{Fields: out}
}

// namespace drops the root struct name: "Config.recommend.page_size" -> "recommend.page_size".
func namespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

var messages = map[string]string{
	"required": "%s is required",
	"url":      "%s must be a valid URL",
	"titleid":  "%s must be an IMDb title ID (tt followed by digits)",
	"region":   "%s must be a two-letter upper-case region code",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	field := namespace(fe)
	if tmpl, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
