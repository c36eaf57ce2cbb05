package params

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

// UUID extracts and parses a UUID path parameter.
func UUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("path parameter %q must be a UUID", name))
	}
	return id, nil
}
