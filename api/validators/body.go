package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeJSONBody parses and validates a request body into dst. dst must be a
// pointer to a struct carrying `validate` tags.
func DecodeJSONBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.New(apperrors.CodeValidation, "request body must contain a single JSON object")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make([]map[string]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				details = append(details, map[string]string{
					"field": strings.ToLower(fe.Field()),
					"rule":  fe.Tag(),
				})
			}
			return apperrors.New(apperrors.CodeValidation, "request validation failed").
				WithDetails(details)
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "validating request body")
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return apperrors.New(apperrors.CodeValidation, "request body must not be empty")
	case errors.As(err, &syntaxErr):
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("request body contains malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("request body has an invalid value for field %q", typeErr.Field))
	case errors.As(err, &maxErr):
		return apperrors.New(apperrors.CodeValidation, "request body is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("request body contains unknown field %s", field))
	default:
		return apperrors.New(apperrors.CodeValidation, "request body could not be parsed")
	}
}
