package respbuilder

import "net/http"

type ErrKind int64

const (
	ErrUnhandled ErrKind = iota + 1
	ErrValidation
	ErrConflict
	ErrResourceNotFound
	ErrUnauthorized
	ErrForbidden
)

type Reason struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (r *Reason) Error() string {
	return r.Message
}

var ReasonMap = map[ErrKind]Reason{
	ErrUnhandled:        {Code: "01", Message: "unhandled error", HTTPStatus: http.StatusInternalServerError},
	ErrValidation:       {Code: "02", Message: "error validation", HTTPStatus: http.StatusUnprocessableEntity},
	ErrConflict:         {Code: "03", Message: "duplicate entries", HTTPStatus: http.StatusConflict},
	ErrResourceNotFound: {Code: "04", Message: "resource not found", HTTPStatus: http.StatusNotFound},
	ErrUnauthorized:     {Code: "05", Message: "unauthorized", HTTPStatus: http.StatusUnauthorized},
	ErrForbidden:        {Code: "06", Message: "not allowed to access this resource", HTTPStatus: http.StatusForbidden},
}

// ErrorEntity contain code, message, debug (*if applicable) and trace id.
type ErrorEntity struct {
	Code    string `json:"error_code"`        // to handle by FE
	Message string `json:"error_description"` // to handle by FE (string version of the error code)
	Debug   string `json:"debug,omitempty"`   // technical error
	TraceID string `json:"trace_id"`
}

// HTTPError wraps the error object on the "error" key.
type HTTPError struct {
	Err ErrorEntity `json:"error"`
}

func (e HTTPError) Error() string {
	return e.Err.Message + ": " + e.Err.Debug
}

// HTTPSuccess success response always wrap in data key.
type HTTPSuccess struct {
	TraceID string      `json:"trace_id"`
	Data    interface{} `json:"data"`
}
