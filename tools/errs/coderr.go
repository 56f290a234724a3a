package errs

import (
	"errors"
	"strconv"
)

// Code ranges: 1xxx validation, 2xxx authentication, 3xxx delivery,
// 4xxx external collaborators.
const (
	CodeValidation   = 1001
	CodeAuth         = 2001
	CodeStaleHandle  = 3001
	CodeCollaborator = 4001
)

var (
	ErrValidation   = NewCodeError(CodeValidation, "invalid event payload")
	ErrAuth         = NewCodeError(CodeAuth, "authentication failed")
	ErrStaleHandle  = NewCodeError(CodeStaleHandle, "connection handle is stale")
	ErrCollaborator = NewCodeError(CodeCollaborator, "collaborator call failed")
)

func NewCodeError(code int, msg string) CodeError {
	return CodeError{Code: code, Msg: msg}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e CodeError) Error() string {
	s := strconv.Itoa(e.Code) + ": " + e.Msg
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

func (e CodeError) Is(err error) bool {
	var ce CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// UserMessage extracts the human-readable message carried by a CodeError,
// falling back to err.Error() for everything else. Used when building the
// outbound error event, which must never leak internal detail.
func UserMessage(err error) string {
	var ce CodeError
	if errors.As(err, &ce) {
		if ce.Detail != "" {
			return ce.Msg + ": " + ce.Detail
		}
		return ce.Msg
	}
	return err.Error()
}

// CodeOf returns the code of a CodeError, or 0 for foreign errors.
func CodeOf(err error) int {
	var ce CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
