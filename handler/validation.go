package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tieubaoca/query-retrieval/types"
)

var errMalformedJSON = errors.New("malformed JSON")

var registerTagNameOnce sync.Once

// useJSONFieldNames makes validator report fields by their json names.
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}

// bindQueryRequest requires the body to be exactly one JSON value before
// handing it to gin's JSON binding and validation.
func bindQueryRequest(c *gin.Context, req *types.QueryRequest) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return io.EOF
	}
	if !json.Valid(body) {
		return errMalformedJSON
	}
	return binding.JSON.BindBody(body, req)
}

// bindError turns a bindQueryRequest failure into a validation error with
// one message per offending field.
func bindError(err error) *types.DomainError {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	case errors.As(err, &typeErr):
		// element errors arrive as e.g. "questions[1]"; report them on the list
		path := typeErr.Field
		field, _, _ := strings.Cut(path, "[")
		field, _, _ = strings.Cut(field, ".")
		if field == "" {
			field = "body"
		}
		message := "must be of type " + typeErr.Type.String()
		if path != field && path != "" {
			message = path + " " + message
		}
		fields[field] = message
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, errMalformedJSON):
		fields["body"] = "malformed JSON"
	case errors.Is(err, io.EOF):
		fields["body"] = "request body is required"
	default:
		fields["body"] = err.Error()
	}

	return types.NewValidationError("Invalid request", fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed on " + fe.Tag() + " validation"
	}
}
