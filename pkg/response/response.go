package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST       ErrCode = "REQUEST_FAILED"
	BAD_REQUEST          ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND            ErrCode = "NOT_FOUND"
	LOCKED               ErrCode = "LOCKED"
	INVALID_STATE        ErrCode = "INVALID_STATE"
	PARSE_FAILED         ErrCode = "PARSE_FAILED"
	UPSTREAM_UNAVAILABLE ErrCode = "UPSTREAM_UNAVAILABLE"
	OFFSETS_TOO_CLOSE    ErrCode = "OFFSETS_TOO_CLOSE"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("resource not found")
	ErrLocked          = errors.New("resource is locked")
	ErrParse           = errors.New("malformed time value")
	ErrFetch           = errors.New("upstream data unavailable")
	ErrInvalidState    = errors.New("absence is not pending")
	ErrOffsetsTooClose = errors.New("reminder offsets are too close together")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
