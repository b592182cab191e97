package ierr

import (
	"encoding/json"
	"errors"
)

type ErrorCode string

const (
	ErrorCodeAuthMissing     ErrorCode = "AuthMissing"
	ErrorCodeTransportError  ErrorCode = "TransportError"
	ErrorCodeParseError      ErrorCode = "ParseError"
	ErrorCodePublishRejected ErrorCode = "PublishRejected"
	ErrorCodeInvalidArgument ErrorCode = "InvalidArgument"
	ErrorCodeInternal        ErrorCode = "Internal"
)

type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`

	cause error
}

func New(code ErrorCode, cause error) Error {
	return Error{
		Code:    code,
		Message: cause.Error(),
		cause:   cause,
	}
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.cause.Error()
}

func (e Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the ErrorCode carried by err, or ErrorCodeInternal
// when err does not wrap an ierr.Error.
func CodeOf(err error) ErrorCode {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrorCodeInternal
}
