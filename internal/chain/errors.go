package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error cause names reported by the node inside HANDLER_ERROR responses.
const (
	CauseUnknownBlock       = "UNKNOWN_BLOCK"
	CauseUnknownChunk       = "UNKNOWN_CHUNK"
	CauseUnknownTransaction = "UNKNOWN_TRANSACTION"
	CauseTimeoutError       = "TIMEOUT_ERROR"
)

// ErrInvalidHash is returned when a chunk or transaction hash is not a
// base58-encoded 32-byte value.
var ErrInvalidHash = errors.New("invalid hash")

// RPCError is the structured error object of a JSON-RPC response.
type RPCError struct {
	Method  string          `json:"-"`
	Name    string          `json:"name"`
	Cause   *ErrorCause     `json:"cause"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type ErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info"`
}

func (e *RPCError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "rpc error %d", e.Code)
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}
	if cause := e.CauseName(); cause != "" {
		b.WriteString("/")
		b.WriteString(cause)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// CauseName returns the cause name or "" when the node sent none.
func (e *RPCError) CauseName() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Name
}

// StatusError reports a non-2xx HTTP response. Err holds the decoded RPC
// error when the body carried one.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected http status %d", e.Method, e.StatusCode)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	if e.Body != "" {
		return msg + ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsUnknownBlock reports whether err says the requested block does not exist.
func IsUnknownBlock(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	if rpcErr.CauseName() == CauseUnknownBlock {
		return true
	}
	// Nodes without structured causes only describe the miss in data.
	if rpcErr.Cause == nil && len(rpcErr.Data) > 0 {
		var data string
		if json.Unmarshal(rpcErr.Data, &data) == nil {
			return strings.HasPrefix(data, "DB Not Found Error: BLOCK")
		}
	}
	return false
}

// IsStatusError reports whether err came from a non-2xx HTTP response.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
