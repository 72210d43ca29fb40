package validators

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type lineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type orderRequest struct {
	Channel string        `json:"channel" validate:"required,oneof=dine_in takeout"`
	Items   []lineRequest `json:"items" validate:"required,min=1,dive"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var dest orderRequest
	err := DecodeJSONBody(post(`{"channel":"takeout","items":[{"product_id":"p1","quantity":2}]}`), &dest)

	require.NoError(t, err)
	assert.Equal(t, "takeout", dest.Channel)
	require.Len(t, dest.Items, 1)
	assert.Equal(t, 2, dest.Items[0].Quantity)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"channel":`},
		{"unknown field", `{"channel":"takeout","items":[{"product_id":"p1","quantity":1}],"tip":"5"}`},
		{"trailing value", `{"channel":"takeout","items":[{"product_id":"p1","quantity":1}]} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dest orderRequest
			err := DecodeJSONBody(post(tt.body), &dest)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestDecodeJSONBodyEmptyKeepsEOFCause(t *testing.T) {
	var dest orderRequest
	err := DecodeJSONBody(post(""), &dest)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	var dest orderRequest
	err := DecodeJSONBody(post(`{"channel":"delivery","items":[{"product_id":"","quantity":0}]}`), &dest)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be one of [dine_in takeout]", details["channel"])
	assert.Equal(t, "is required", details["items[0].product_id"])
	assert.Equal(t, "must be greater than 0", details["items[0].quantity"])
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	huge := `{"channel":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	var dest orderRequest
	err := DecodeJSONBody(post(huge), &dest)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "request body too large", typed.Message())
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{"missing uses fallback", "", 25, false},
		{"blank uses fallback", "?limit=%20", 25, false},
		{"in range", "?limit=10", 10, false},
		{"upper bound", "?limit=100", 100, false},
		{"not a number", "?limit=ten", 0, true},
		{"below range", "?limit=0", 0, true},
		{"above range", "?limit=101", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/orders"+tt.query, nil)
			got, err := ParseQueryInt(r, "limit", 25, 1, 100)
			if tt.wantErr {
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "no ice", SanitizeString("  no ice \n", 0))
	assert.Equal(t, "extra", SanitizeString("extra hot", 5))
	assert.Equal(t, "jalapeño", SanitizeString("jalapeños", 8))
	assert.Equal(t, "short", SanitizeString("short", 50))
	assert.Equal(t, "a", SanitizeString("a b", 2))
}
