package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log entry
type Level string

const (
	LevelDebug  Level = "DEBUG"
	LevelError  Level = "ERROR"
	LevelObject Level = "OBJECT"

	// LevelInfo is only a display fallback; the facade never produces it.
	LevelInfo Level = "INFO"
)

// TimestampLayout is the ISO-8601 layout used for Entry.Timestamp
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	DefaultErrorTitle  = "Error"
	DefaultObjectTitle = "Data Object"
	ObjectMessage      = "Object visualization"

	// PayloadPlaceholder replaces payloads that cannot be encoded
	PayloadPlaceholder = "Error parsing object"
)

// Valid reports whether the level is one the facade can produce
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelError, LevelObject:
		return true
	}
	return false
}

// Icon returns the marker used when rendering the level
func (l Level) Icon() string {
	switch l {
	case LevelDebug:
		return "🐞"
	case LevelError:
		return "❌"
	case LevelObject:
		return "📦"
	default:
		return "📝"
	}
}

// Entry is a single logged event. Entries are passed by value and never
// edited after construction.
type Entry struct {
	ID        string `json:"id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Title     string `json:"title,omitempty"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// Time parses the entry timestamp, returning the zero time when it is malformed
func (e Entry) Time() time.Time {
	t, err := time.Parse(TimestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newEntry(level Level, message, title string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Title:     title,
		Timestamp: time.Now().UTC().Format(TimestampLayout),
	}
}

// NewDebug creates a DEBUG entry
func NewDebug(message, title string) Entry {
	return newEntry(LevelDebug, message, title)
}

// NewErrorMessage creates an ERROR entry from a plain message. No stack is attached.
func NewErrorMessage(message, title string) Entry {
	if title == "" {
		title = DefaultErrorTitle
	}
	return newEntry(LevelError, message, title)
}

// NewErrorFrom creates an ERROR entry from an error value and its stack trace
func NewErrorFrom(err error, title, stack string) Entry {
	message := "<nil>"
	if err != nil {
		message = err.Error()
	}
	e := NewErrorMessage(message, title)
	e.Stack = stack
	return e
}

// NewObject creates an OBJECT entry carrying data
func NewObject(data any, title string) Entry {
	if title == "" {
		title = DefaultObjectTitle
	}
	e := newEntry(LevelObject, ObjectMessage, title)
	e.Data = data
	return e
}

// Portable returns a copy of e that is safe to encode as JSON. A payload that
// fails to encode (cycles, channels, funcs) is replaced by PayloadPlaceholder.
func Portable(e Entry) Entry {
	if e.Data == nil {
		return e
	}
	if _, err := json.Marshal(e.Data); err != nil {
		e.Data = PayloadPlaceholder
	}
	return e
}

// PortableAll applies Portable to every entry, returning a new slice
func PortableAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Portable(e)
	}
	return out
}
