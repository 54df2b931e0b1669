package respond

import (
	"errors"
	"net/http"
)

// HTTPError is an error with a fixed status and a stable machine key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest           = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrConflict             = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrUnsupportedMediaType = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrRequestTooLarge      = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
)

var (
	ErrInvalidJSON        = errors.New("invalid JSON")
	ErrMissingContentType = errors.New("missing content type")
)
