// Package common provides shared types and utilities for UI features.
package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/state"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteError writes err as an ErrorResponse with a status derived from it.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(err), ErrorResponse{Error: err.Error()})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrModuleNotFound),
		errors.Is(err, core.ErrTypeNotFound),
		errors.Is(err, core.ErrMemberNotFound),
		errors.Is(err, engine.ErrNoCurrentGraph),
		errors.Is(err, state.ErrSnapshotNotFound),
		errors.Is(err, dag.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrBuildInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
