package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/piousdev/roel-agency/pkg/apperror"
)

// Init configures the validator used by Gin's binding.
// - Uses JSON tag names in field paths.
// - Registers alias tags shared by the request DTOs.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Configure(v)
	}
}

// Configure applies the tag name function and aliases to v.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterAlias("pwd", "min=8,max=128")
	v.RegisterAlias("displayname", "min=2,max=100")
}

// FromBindError converts a binding or validation failure into the boundary's
// error variants. Oversized bodies become an *apperror.HTTPError; everything
// else becomes an *apperror.ValidationError.
func FromBindError(err error) error {
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large", err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]apperror.Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, apperror.Issue{Path: fieldPath(fe.Namespace()), Message: formatFieldError(fe)})
		}
		return &apperror.ValidationError{Issues: issues}
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return &apperror.ValidationError{Issues: []apperror.Issue{{
			Path:    splitPath(ute.Field),
			Message: "must be of type " + jsonTypeName(ute.Type),
		}}}
	}

	var se *json.SyntaxError
	if errors.As(err, &se) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &apperror.ValidationError{Issues: []apperror.Issue{{Message: "invalid json"}}}
	}
	if errors.Is(err, io.EOF) {
		return &apperror.ValidationError{Issues: []apperror.Issue{{Message: "request body is required"}}}
	}

	return &apperror.ValidationError{Issues: []apperror.Issue{{Message: "invalid payload"}}}
}

// fieldPath turns a validator namespace ("signUpRequest.items[0].name") into
// path segments without the root struct name (["items", "0", "name"]).
func fieldPath(namespace string) []string {
	segs := splitPath(namespace)
	if len(segs) <= 1 {
		return nil
	}
	return segs[1:]
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	p = strings.NewReplacer("[", ".", "]", "").Replace(p)
	out := make([]string, 0, 4)
	for _, s := range strings.Split(p, ".") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	if isNumberKind(t.Kind()) {
		return "number"
	}
	return t.String()
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()
	kind := fe.Kind()

	switch tag {
	// ===== PRESENCE =====
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "required_with":
		return "is required when " + param + " is present"
	case "required_without":
		return "is required when " + param + " is not present"

	// ===== FORMATS =====
	case "email":
		return "Invalid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uri":
		return "must be a valid URI"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "alphanum":
		return "must contain alphanumeric characters only"
	case "ascii":
		return "must contain ASCII characters only"
	case "hostname":
		return "must be a valid hostname"
	case "ip":
		return "must be a valid IP address"

	// ===== SIZE/LENGTH =====
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(kind) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(kind) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param

	// ===== COMPARISON =====
	case "eqfield":
		if param == "Password" {
			return "Passwords do not match"
		}
		return "must match " + lowerFirst(param)
	case "nefield":
		return "must not match " + lowerFirst(param)
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")

	// ===== ALIASES =====
	case "pwd":
		return aliasBound("Password", fe)
	case "displayname":
		return aliasBound("Name", fe)

	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

// aliasBound names the bound of a length alias that failed, e.g.
// "Name must be at least 2 characters".
func aliasBound(label string, fe validator.FieldError) string {
	if fe.ActualTag() == "min" {
		return label + " must be at least " + fe.Param() + " characters"
	}
	return label + " must be less than " + fe.Param() + " characters"
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
