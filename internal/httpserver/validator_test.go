package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_api/internal/transport"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(&transport.AddToCartRequest{ProductID: 1, Quantity: 2}))

	err := v.Validate(&transport.AddToCartRequest{ProductID: 1, Quantity: -1})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Contains(t, he.Message, "quantity failed on")

	err = v.Validate(&transport.SignupRequest{Email: "bad", Password: "123"})
	require.ErrorAs(t, err, &he)
	assert.Contains(t, he.Message, "email failed on email")
	assert.Contains(t, he.Message, "password failed on min")
}

func TestParseID(t *testing.T) {
	e := echo.New()
	tests := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{raw: "7", want: 7, ok: true},
		{raw: "0"},
		{raw: "-3"},
		{raw: "12abc"},
		{raw: ""},
	}
	for _, tt := range tests {
		t.Run("id="+tt.raw, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tt.raw)

			got, err := parseID(c, "id")
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
