package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateReviewRequest is the JSON body for the create review endpoint.
type CreateReviewRequest struct {
	ID             string `json:"id" validate:"required,max=128,excludesall=/?#"`
	Description    string `json:"description" validate:"max=4096"`
	Reference      string `json:"reference" validate:"max=2048"`
	PersonInCharge string `json:"person_in_charge" validate:"max=128"`
}

// CreateCommentRequest is the JSON body for the create comment endpoint.
type CreateCommentRequest struct {
	Author    string `json:"author" validate:"required,max=128,excludesall=/?#"`
	Recipient string `json:"recipient" validate:"max=128"`
	Priority  string `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Status    string `json:"status" validate:"omitempty,oneof=open resolved rejected deferred"`
	Body      string `json:"body" validate:"max=65536"`
	Path      string `json:"path" validate:"max=1024"`
}

// UpdateCommentRequest is the JSON body for the update comment endpoint.
// Absent fields are left unchanged.
type UpdateCommentRequest struct {
	Recipient *string `json:"recipient" validate:"omitempty,max=128"`
	Priority  *string `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Status    *string `json:"status" validate:"omitempty,oneof=open resolved rejected deferred"`
	Body      *string `json:"body" validate:"omitempty,max=65536"`
}

// AddReplyRequest is the JSON body for the add reply endpoint.
type AddReplyRequest struct {
	Author string `json:"author" validate:"required,max=128"`
	Body   string `json:"body" validate:"required,max=65536"`
}

// AnnotationRequest places the marker of one comment in a document.
type AnnotationRequest struct {
	ReviewID string `json:"review_id" validate:"required"`
	Author   string `json:"author" validate:"required"`
	ID       int    `json:"id" validate:"min=0"`
	Offset   int    `json:"offset" validate:"min=0"`
	Length   int    `json:"length" validate:"min=0"`
}

// ImportRequest is the JSON body for the pull request import endpoint.
type ImportRequest struct {
	Repo     string `json:"repo" validate:"required,max=256,contains=/"`
	Number   int    `json:"number" validate:"required,min=1"`
	ReviewID string `json:"review_id" validate:"required,max=128,excludesall=/?#"`
}

// decodeRequest decodes the JSON body into v and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}

	return validateStruct(v)
}

var errInvalidBody = errors.New("invalid request body")

// validateStruct validates a struct, or each struct of a slice, based on
// its validation tags.
func validateStruct(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Slice {
		if err := validate.Struct(v); err != nil {
			return formatValidationError(err)
		}
		return nil
	}

	for i := range rv.Len() {
		if err := validate.Struct(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("item %d: %w", i, formatValidationError(err))
		}
	}
	return nil
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "excludesall":
		return fmt.Sprintf("%s must not contain any of %q", field, e.Param())
	case "contains":
		return fmt.Sprintf("%s must contain %q", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
