package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"

	"github.com/dmitrymomot/kbm/pkg/logger"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes data with status.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// JSONWithMeta writes data and meta with status.
func JSONWithMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	write(w, status, Envelope{Data: data, Meta: meta})
}

// Error writes the envelope for err. Server errors are logged with log and
// answered with a generic message.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.ErrorContext(r.Context(), "request failed",
			logger.Path(r.URL.Path), logger.Error(err))
	}
	write(w, status, Envelope{Error: detail})
}

// ErrorHandler adapts Error to tenant.ErrorHandler so the resolver and the
// guards answer with the same envelope as the handlers.
func ErrorHandler(log *slog.Logger) tenant.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		Error(w, r, log, err)
	}
}

func errorDetail(err error) (int, *ErrorDetail) {
	var verr ValidationError
	if errors.As(err, &verr) {
		d := &ErrorDetail{Code: "validation_error", Message: verr.Error()}
		if len(verr) > 0 {
			d.Details = make(map[string][]string, len(verr))
			maps.Copy(d.Details, verr)
		}
		return http.StatusUnprocessableEntity, d
	}

	var herr HTTPError
	if errors.As(err, &herr) {
		return herr.Code, &ErrorDetail{Code: herr.Key, Message: http.StatusText(herr.Code)}
	}

	switch status := tenant.StatusCode(err); status {
	case http.StatusNotFound:
		return status, &ErrorDetail{Code: "not_found", Message: "Not found"}
	case http.StatusForbidden:
		return status, &ErrorDetail{Code: "forbidden", Message: "Forbidden"}
	case http.StatusUnauthorized:
		return status, &ErrorDetail{Code: "unauthorized", Message: "Unauthorized"}
	}
	return http.StatusInternalServerError, &ErrorDetail{Code: "internal_error", Message: "Internal server error"}
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
