// Package serializer defines the HTTP response envelope and the
// mapping from the service error taxonomy to status codes.
package serializer

import (
	"errors"
	"net/http"

	"github.com/dynoform/composer/internal/pkg/apperr"
)

type Response struct {
	Code  int    `json:"code"`
	Data  any    `json:"data,omitempty"`
	Msg   string `json:"msg"`
	Error string `json:"error,omitempty"`
}

type ListData struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
}

const (
	CodeParamErr     = 40001
	CodeNotFound     = 40401
	CodeConflict     = 40901
	CodeImmutable    = 40902
	CodeInvalidState = 40903
	CodeDBErr        = 50001
	CodeInternalErr  = 50002
)

func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "invalid request"
	}
	r := Response{Code: CodeParamErr, Msg: msg}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	r := Response{Code: CodeDBErr, Msg: msg}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Err maps a service error onto the envelope plus the HTTP status the
// handler should write. Unclassified errors are reported as internal.
func Err(err error) (int, Response) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, Response{Code: CodeInternalErr, Msg: "internal error", Error: err.Error()}
	}
	switch ae.Code {
	case apperr.CodeValidation:
		return http.StatusBadRequest, Response{Code: CodeParamErr, Msg: ae.Message, Error: ae.Error()}
	case apperr.CodeNotFound:
		return http.StatusNotFound, Response{Code: CodeNotFound, Msg: ae.Message}
	case apperr.CodeConflictingIdentity:
		return http.StatusConflict, Response{Code: CodeConflict, Msg: ae.Message}
	case apperr.CodeImmutableArtifact, apperr.CodeImmutableStructure:
		return http.StatusConflict, Response{Code: CodeImmutable, Msg: ae.Message, Data: map[string]any{
			"artifact_id": ae.ArtifactID,
			"op":          ae.Op,
			"hint":        ae.Hint,
		}}
	case apperr.CodeInvalidState:
		return http.StatusConflict, Response{Code: CodeInvalidState, Msg: ae.Message}
	case apperr.CodeGuardMisconfigured:
		return http.StatusInternalServerError, Response{Code: CodeInternalErr, Msg: "internal error", Error: ae.Error()}
	default:
		return http.StatusInternalServerError, Response{Code: CodeInternalErr, Msg: "internal error", Error: ae.Error()}
	}
}

func OK(data any) Response {
	return Response{Code: 0, Data: data, Msg: "ok"}
}
