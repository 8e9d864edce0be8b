package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type selfValidatingRequest struct {
	err error
}

func (r selfValidatingRequest) Validate() error { return r.err }

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"url":"https://example.com/v"}`))

	var decoded taggedRequest
	require.NoError(t, DecodeJSON(req, &decoded))
	assert.Equal(t, "https://example.com/v", decoded.URL)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	assert.Error(t, DecodeJSON(bad, &decoded))
}

func TestValidateRequestUsesStructTags(t *testing.T) {
	assert.NoError(t, ValidateRequest(taggedRequest{URL: "https://example.com/v"}))

	err := ValidateRequest(taggedRequest{URL: "not a url"})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestValidateRequestPrefersValidateMethod(t *testing.T) {
	assert.NoError(t, ValidateRequest(selfValidatingRequest{}))

	sentinel := errors.New("bad request")
	assert.ErrorIs(t, ValidateRequest(selfValidatingRequest{err: sentinel}), sentinel)
}
