package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, w.Body.String())
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, "order not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"order not found"}}`, w.Body.String())
}

func TestFieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{"price": "must be greater than 0"})

	assert.JSONEq(t,
		`{"success":false,"error":{"message":"validation failed","fields":{"price":"must be greater than 0"}}}`,
		w.Body.String())
}

func TestDecode(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}

	t.Run("Valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"mug"}`))
		var in input
		require.NoError(t, Decode(r, &in))
		assert.Equal(t, "mug", in.Name)
	})

	t.Run("Unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"mug","x":1}`))
		var in input
		assert.ErrorIs(t, Decode(r, &in), ErrBadRequestBody)
	})

	t.Run("Malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		var in input
		assert.ErrorIs(t, Decode(r, &in), ErrBadRequestBody)
	})
}
