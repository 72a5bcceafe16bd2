package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/validation"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_Status(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &validation.Error{Fields: []validation.FieldError{{Field: "name", Message: "El nombre es requerido"}}}, http.StatusBadRequest, MsgValidation},
		{"invalid", apperr.Invalid("malo", "x"), http.StatusBadRequest, "malo"},
		{"not found wrapped", fmt.Errorf("get: %w", apperr.NotFound("no está")), http.StatusNotFound, "no está"},
		{"conflict", apperr.Conflict("repetido"), http.StatusConflict, "repetido"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest("GET", "/", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var env map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, false, env["success"])
			assert.Equal(t, tc.message, env["message"])
		})
	}
}

func TestParseID(t *testing.T) {
	r := chi.NewRouter()
	var got int64
	var gotErr error
	r.Get("/x/{id}", func(w http.ResponseWriter, req *http.Request) {
		got, gotErr = ParseID(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x/42", nil))
	require.NoError(t, gotErr)
	assert.EqualValues(t, 42, got)

	for _, bad := range []string{"0", "-3", "abc", "1.5"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x/"+bad, nil))
		assert.Error(t, gotErr, bad)
	}
}

func TestSearchTerm(t *testing.T) {
	q, err := SearchTerm(httptest.NewRequest("GET", "/?q=+luna+", nil))
	require.NoError(t, err)
	assert.Equal(t, "luna", q)

	q, err = SearchTerm(httptest.NewRequest("GET", "/?search=rex", nil))
	require.NoError(t, err)
	assert.Equal(t, "rex", q)

	_, err = SearchTerm(httptest.NewRequest("GET", "/", nil))
	assert.ErrorIs(t, err, ErrSearchTerm)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = SearchTerm(httptest.NewRequest("GET", "/?q="+string(long), nil))
	assert.ErrorIs(t, err, ErrSearchLarge)
}

func TestList_CountWithoutPagination(t *testing.T) {
	rec := httptest.NewRecorder()
	List(rec, "ok", []int{1, 2}, 2)

	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.EqualValues(t, 2, env["count"])
	assert.NotContains(t, env, "pagination")
}
