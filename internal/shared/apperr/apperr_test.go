package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("delete item: %w", NotFound("Packaging item not found"))
	assert.Equal(t, KindNotFound, KindOf(err))

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "Packaging item not found", e.Message)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindOf(errors.New("boom"))))
}

func TestStorageUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("Failed to delete file", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to delete file: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:         http.StatusBadRequest,
		KindInvalidCredentials: http.StatusBadRequest,
		KindNotFound:           http.StatusNotFound,
		KindConflict:           http.StatusConflict,
		KindUnauthorized:       http.StatusUnauthorized,
		KindForbidden:          http.StatusForbidden,
		KindStorage:            http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, HTTPStatus(k), k.String())
	}
}
