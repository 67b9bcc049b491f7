package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{fmt.Errorf("%w: not allowed", domain.ErrIllegalTransition), http.StatusBadRequest, "illegal_transition"},
		{fmt.Errorf("%w: total differs", domain.ErrTotalMismatch), http.StatusBadRequest, "total_mismatch"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: order does not exist", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: stale", domain.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("%w: only 1 left", domain.ErrInsufficientStock), http.StatusConflict, "insufficient_stock"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestHandleError_HidesPersistenceDetails(t *testing.T) {
	for _, err := range []error{
		fmt.Errorf("%w: failed to insert order: %w", domain.ErrPersistence, errors.New("mongo: server selection timeout")),
		errors.New("something unexpected"),
	} {
		rec := httptest.NewRecorder()
		handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "persistence_failure", resp.Code)
		assert.Equal(t, internalMessage, resp.Error)
		assert.NotContains(t, resp.Error, "mongo")
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query   string
		want    domain.PageRequest
		wantErr bool
	}{
		{"", domain.PageRequest{Page: 1, PageSize: 10}, false},
		{"?page=3&pageSize=25", domain.PageRequest{Page: 3, PageSize: 25}, false},
		{"?page=abc", domain.PageRequest{}, true},
		{"?pageSize=0", domain.PageRequest{}, true},
		{"?page=-1", domain.PageRequest{}, true},
		{"?page=9223372036854775807&pageSize=10", domain.PageRequest{}, true},
		{"?page=1844674407370955162&pageSize=10", domain.PageRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := parsePage(httptest.NewRequest(http.MethodGet, "/products"+tt.query, nil))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
