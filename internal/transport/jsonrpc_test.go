package transport

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"wizard_configure","params":{"a":1},"id":"7"}`))
	require.NoError(t, err)
	require.Equal(t, "wizard_configure", req.Method)
	require.Equal(t, json.RawMessage(`{"a":1}`), req.Params)
	require.Equal(t, json.RawMessage(`"7"`), req.ID)
	require.False(t, req.IsNotification())

	req, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"navigate","id":null}`))
	require.NoError(t, err)
	require.False(t, req.IsNotification())
	require.Equal(t, json.RawMessage(`null`), req.ID)

	req, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","method":"navigate"}`))
	require.NoError(t, err)
	require.True(t, req.IsNotification())
}

func TestParseRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"truncated", `{"jsonrpc":`, ErrParseCode},
		{"no method", `{"jsonrpc":"2.0","id":1}`, ErrInvalidReq},
		{"wrong version", `{"jsonrpc":"1.0","method":"get_console","id":1}`, ErrInvalidReq},
		{"too large", `{"jsonrpc":"2.0","method":"x","params":"` + strings.Repeat("a", MaxRequestBytes) + `"}`, ErrInvalidReq},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(strings.NewReader(tt.body))
			require.Error(t, err)
			require.Equal(t, tt.code, parseErrorCode(err))
		})
	}
}

func TestWriteError_NullID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, ErrInvalidParams, "bad params", nil)

	require.Equal(t, 200, rec.Code)
	require.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32602,"message":"bad params"},"id":null}`, rec.Body.String())
}
