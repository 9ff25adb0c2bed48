package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/state"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("lookup: %w", engine.ErrModuleNotFound), http.StatusNotFound},
		{core.ErrTypeNotFound, http.StatusNotFound},
		{core.ErrMemberNotFound, http.StatusNotFound},
		{engine.ErrNoCurrentGraph, http.StatusNotFound},
		{state.ErrSnapshotNotFound, http.StatusNotFound},
		{dag.ErrNodeNotFound, http.StatusNotFound},
		{engine.ErrBuildInProgress, http.StatusConflict},
		{errors.Join(ErrBadRequest, errors.New("bad json")), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, engine.ErrBuildInProgress)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "build already in progress", out.Error)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, "x", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	assert.ErrorIs(t, DecodeJSON(r, &v), ErrBadRequest)
}
