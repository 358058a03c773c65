package upload

import (
	"errors"

	"github.com/dmitrymomot/uploadgate/core/handler"
	"github.com/dmitrymomot/uploadgate/core/response"
)

const jsonRPCVersion = "2.0"

type rpcSuccess struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result"`
	ID      string `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcFailure struct {
	JSONRPC string   `json:"jsonrpc"`
	Error   rpcError `json:"error"`
	ID      string   `json:"id"`
}

// Success is the JSON-RPC acknowledgement sent for every accepted request.
func Success() handler.Response {
	return response.NoCache(response.JSON(rpcSuccess{JSONRPC: jsonRPCVersion, ID: "id"}))
}

// Failure renders err as a JSON-RPC error with HTTP status 200.
func Failure(err error) handler.Response {
	code, msg := ErrorCode(err)
	return response.NoCache(response.JSON(rpcFailure{
		JSONRPC: jsonRPCVersion,
		Error:   rpcError{Code: code, Message: msg},
	}))
}

// ErrorCode returns the JSON-RPC code and client message for err. Errors
// that are not *Error map to CodeDefault and a generic message.
func ErrorCode(err error) (int, string) {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr.Code, uerr.Message
	}
	return CodeDefault, MsgInternal
}
