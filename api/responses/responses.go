package responses

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/types"
)

// WriteJSON writes a raw payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteSuccess wraps data in the standard success envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError maps an error to the wire envelope. Internal errors are logged
// with their cause but never leaked to the client.
func WriteError(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, err error) {
	appErr := apperrors.As(err)
	if appErr == nil {
		appErr = apperrors.Wrap(apperrors.CodeInternal, err, "unhandled error")
	}
	meta := apperrors.MetadataFor(appErr.Code())

	if meta.HTTPStatus >= http.StatusInternalServerError && logg != nil {
		dump := apperrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code":    dump.Code,
			"error_chain":   dump.Chain,
			"pg_code":       dump.PGCode,
			"pg_constraint": dump.PGConstraint,
		})
		logg.Error(ctx, "request failed", err)
	}

	body := types.APIError{
		Code:    string(appErr.Code()),
		Message: appErr.Message(),
	}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		body.Message = meta.PublicMessage
	}
	if meta.DetailsAllowed {
		body.Details = appErr.Details()
	}
	WriteJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: body})
}
