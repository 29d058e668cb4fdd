// Package responses writes the sandbox API's JSON bodies.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// WriteSuccess writes data as the bare JSON body with a 200 status.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// WriteMessage acknowledges an action with {"message": msg}.
func WriteMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, types.MessageBody{Message: msg})
}

// WriteError maps err onto its status and writes {"detail": ...}. Field
// validation failures become a list of field errors.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	if typed.Code() == pkgerrors.CodeUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, meta.HTTPStatus, errorBody(typed, meta))
}

func errorBody(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.ErrorBody {
	if fields, ok := typed.Details().(map[string]string); ok && meta.DetailsAllowed && len(fields) > 0 {
		return fieldErrorBody(fields)
	}
	if meta.Exposed && typed.Message() != "" {
		return types.NewErrorBody(typed.Message())
	}
	return types.NewErrorBody(meta.PublicMessage)
}

func fieldErrorBody(fields map[string]string) types.ErrorBody {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	list := make([]types.FieldError, len(names))
	for i, name := range names {
		list[i] = types.FieldError{Loc: []any{"body", name}, Msg: fields[name], Type: "value_error"}
	}
	raw, _ := json.Marshal(list)
	return types.ErrorBody{Detail: raw}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out; an encode failure only truncates the body
	_ = json.NewEncoder(w).Encode(payload)
}
