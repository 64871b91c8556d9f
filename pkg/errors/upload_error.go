package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes surfaced to callers of the upload pipeline.
const (
	CodeNotFound      = "not_found"
	CodeInvalidState  = "invalid_state"
	CodeExternalTool  = "external_tool_failure"
	CodeStorage       = "storage_failure"
	CodeAlreadyExists = "already_exists"
	CodeInvalidChunk  = "invalid_chunk"
	CodeInvalidSize   = "invalid_size"
	CodeInvalidInput  = "invalid_input"
	CodeInternal      = "internal_error"
)

type UploadError struct {
	Code    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Is matches any *UploadError carrying the same code, so callers can write
// errors.Is(err, errors.ErrNotFound(nil)).
func (e *UploadError) Is(target error) bool {
	t, ok := target.(*UploadError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Code returns the pipeline error code of err, or CodeInternal when err is
// not an *UploadError.
func Code(err error) string {
	var ue *UploadError
	if stderrors.As(err, &ue) {
		return ue.Code
	}
	return CodeInternal
}

func HasCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

var (
	ErrNotFound = func(err error) *UploadError {
		return &UploadError{Code: CodeNotFound, Message: "resource not found", Err: err}
	}
	ErrInvalidState = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidState, Message: "video is not in a state that allows this operation", Err: err}
	}
	ErrExternalTool = func(err error) *UploadError {
		return &UploadError{Code: CodeExternalTool, Message: "external tool failed", Err: err}
	}
	ErrStorage = func(err error) *UploadError {
		return &UploadError{Code: CodeStorage, Message: "storage operation failed", Err: err}
	}
	ErrAlreadyExists = func(err error) *UploadError {
		return &UploadError{Code: CodeAlreadyExists, Message: "resource already exists", Err: err}
	}
	ErrInvalidChunk = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidChunk, Message: "chunk payload does not match its declared range", Err: err}
	}
	ErrInvalidSize = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidSize, Message: "invalid upload size", Err: err}
	}
	ErrInvalidInput = func(err error) *UploadError {
		return &UploadError{Code: CodeInvalidInput, Message: "invalid request", Err: err}
	}
	ErrInternal = func(err error) *UploadError {
		return &UploadError{Code: CodeInternal, Message: "internal server error", Err: err}
	}
)
