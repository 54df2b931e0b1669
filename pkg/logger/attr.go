package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". Nil errors yield an empty Attr, which
// slog drops, so callers can pass errors unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records a tenant identifier under "tenant_id".
func TenantID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Component records the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Path records a URL or filesystem path under "path".
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Host records the request host.
func Host(h string) slog.Attr {
	return slog.String("host", h)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
