package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups non-nil errors under "errors". Returns an empty Attr when all are nil.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". Returns an empty Attr for nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// SessionID records the public half of an SSO token under "session_id".
// Never pass the session key here.
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

// Attribute records a session attribute name under "attribute".
func Attribute(name string) slog.Attr {
	return slog.String("attribute", name)
}

// Client records an authentication client name under "client".
func Client(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("client", name)
}

// Clients records the ordered list of candidate clients under "clients".
func Clients(names []string) slog.Attr {
	return slog.Any("clients", names)
}

// Backend records the storage driver name under "backend".
func Backend(driver string) slog.Attr {
	return slog.String("backend", driver)
}

// Action records the outcome of an access decision under "action".
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Status records an HTTP status code under "status".
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// Duration records d under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
