// Package event decodes application events emitted as EVENT_JSON log lines.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nearListener/internal/model"
)

// Prefix marks a log line that carries an event.
const Prefix = "EVENT_JSON:"

// Failure reasons, used as metric labels and in decode error records.
const (
	ReasonInvalidFormat = "invalid_format"
	ReasonParseError    = "parse_error"
)

var (
	// ErrInvalidEventFormat is returned for lines without the event prefix.
	ErrInvalidEventFormat = errors.New("invalid event format")
	// ErrEventParse matches every *ParseError.
	ErrEventParse = errors.New("event parse error")
)

// ParseError reports a prefixed line whose payload is not a valid event.
// Err keeps the decoder diagnostic.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "event parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrEventParse
}

// Parse decodes one raw log line.
func Parse(line string) (model.EventLog, error) {
	payload, ok := strings.CutPrefix(line, Prefix)
	if !ok {
		return model.EventLog{}, fmt.Errorf("%w: log does not start with %s", ErrInvalidEventFormat, Prefix)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return model.EventLog{}, &ParseError{Err: err}
	}

	var ev model.EventLog
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"standard", &ev.Standard},
		{"version", &ev.Version},
		{"event", &ev.Event},
	} {
		raw, ok := fields[f.name]
		if !ok {
			return model.EventLog{}, &ParseError{Err: fmt.Errorf("missing field %q", f.name)}
		}
		if string(raw) == "null" {
			return model.EventLog{}, &ParseError{Err: fmt.Errorf("field %q is null", f.name)}
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return model.EventLog{}, &ParseError{Err: fmt.Errorf("field %q: %w", f.name, err)}
		}
	}

	data, ok := fields["data"]
	if !ok {
		return model.EventLog{}, &ParseError{Err: fmt.Errorf("missing field %q", "data")}
	}
	ev.Data = data

	return ev, nil
}

// Reason maps a Parse error to its failure reason.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEventFormat):
		return ReasonInvalidFormat
	default:
		return ReasonParseError
	}
}
