package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxBodySize caps request bodies read by Decode.
const MaxBodySize = 1 << 20

// Decode reads a single JSON object into v. Unknown fields, trailing data
// and non-JSON content types are rejected.
func Decode(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return errors.Join(ErrUnsupportedMediaType, ErrMissingContentType)
	}
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return ErrRequestTooLarge
		case errors.Is(err, io.EOF):
			return errors.Join(ErrBadRequest, fmt.Errorf("%w: empty body", ErrInvalidJSON))
		default:
			return errors.Join(ErrBadRequest, fmt.Errorf("%w: %v", ErrInvalidJSON, err))
		}
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return errors.Join(ErrBadRequest, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON))
	}
	return nil
}
