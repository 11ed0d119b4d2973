package httpadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	cause := errors.New("cause")
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "op", cause), http.StatusBadRequest},
		{"document not found", domain.WrapError(domain.ErrDocumentNotFound, "op", cause), http.StatusNotFound},
		{"job not found", domain.WrapError(domain.ErrJobNotFound, "op", cause), http.StatusNotFound},
		{"temporary", domain.WrapError(domain.ErrTemporary, "op", cause), http.StatusServiceUnavailable},
		{"config", domain.WrapError(domain.ErrConfig, "op", cause), http.StatusInternalServerError},
		{"untyped", cause, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapErrorToHTTPStatus(tc.err))
		})
	}
}
