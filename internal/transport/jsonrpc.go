package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	// ErrApplication carries console failures; see ErrorData.
	ErrApplication = -32000
)

// MaxRequestBytes bounds a /rpc body. Uploads travel base64 inside params.
const MaxRequestBytes = 32 << 20

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// Request is a JSON-RPC 2.0 call. Only a request with no id member is a
// notification; "id": null decodes to the raw null and is answered.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the caller expects no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC 2.0 reply. ID is null when the request could not
// be read.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData is the data member of an application error.
type ErrorData struct {
	Code         string `json:"code"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

// ParseRequest reads one request of at most MaxRequestBytes.
func ParseRequest(body io.Reader) (Request, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestBytes+1))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if len(data) > MaxRequestBytes {
		return Request{}, fmt.Errorf("%w: body exceeds %d bytes", errInvalidRequest, MaxRequestBytes)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if req.JSONRPC != "2.0" {
		return Request{}, fmt.Errorf("%w: jsonrpc must be \"2.0\"", errInvalidRequest)
	}
	if req.Method == "" {
		return Request{}, fmt.Errorf("%w: missing method", errInvalidRequest)
	}
	return req, nil
}

// parseErrorCode maps a ParseRequest failure to its JSON-RPC code.
func parseErrorCode(err error) int {
	if errors.Is(err, errParse) {
		return ErrParseCode
	}
	return ErrInvalidReq
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id json.RawMessage, result any) {
	writeResponse(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id json.RawMessage, code int, message string, data any) {
	writeResponse(w, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
