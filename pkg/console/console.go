// Package console is the logging facade of devconsole. It can be called from
// anywhere, including before any Provider is mounted: entries logged while no
// dispatcher is attached are buffered and flushed, in order, on Attach.
//
// Quick start
//
//	console.Debug("app started")
//	console.Error(err, "API Error")
//	console.Object(map[string]any{"user": "John"}, "Current User")
package console

import (
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/kcaldas/devconsole/pkg/state"
	"github.com/kcaldas/devconsole/pkg/types"
)

// DispatchFunc delivers an action to a mounted store
type DispatchFunc func(state.Action)

// Logger buffers entries until a dispatcher is attached and forwards them afterwards.
// The zero value is ready to use.
type Logger struct {
	mu       sync.Mutex
	dispatch DispatchFunc
	onAdded  func(types.Entry)
	token    uint64
	buffer   []types.Entry

	// pending holds actions accepted while attached but not yet delivered.
	// Only the goroutine that set draining delivers them.
	pending  []state.Action
	draining bool
}

// New creates an unattached Logger
func New() *Logger {
	return &Logger{}
}

// Attach registers the dispatcher of a mounted store and flushes the buffer
// through it in creation order. onAdded, when not nil, is called once per
// delivered entry. The returned function detaches this registration; it is a
// no-op if a newer Attach has replaced it.
func (l *Logger) Attach(dispatch DispatchFunc, onAdded func(types.Entry)) func() {
	l.mu.Lock()
	l.token++
	token := l.token
	l.dispatch = dispatch
	l.onAdded = onAdded

	flushed := make([]state.Action, 0, len(l.buffer)+len(l.pending))
	for _, e := range l.buffer {
		flushed = append(flushed, state.AddLog{Entry: e})
	}
	l.buffer = nil
	// Anything still queued for a previous dispatcher goes behind the flush.
	l.pending = append(flushed, l.pending...)
	l.drainLocked()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.token == token {
			l.dispatch = nil
			l.onAdded = nil
		}
	}
}

// Attached reports whether a dispatcher is registered
func (l *Logger) Attached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dispatch != nil
}

// Buffered returns the number of entries waiting for a dispatcher
func (l *Logger) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, title ...string) {
	l.add(func() types.Entry {
		return types.NewDebug(message, firstTitle(title))
	})
}

// Error logs an error together with the caller's stack trace. Errors exposing
// their own trace through StackTrace() string keep that trace instead.
func (l *Logger) Error(err error, title ...string) {
	stack := stackOf(err)
	l.add(func() types.Entry {
		return types.NewErrorFrom(err, firstTitle(title), stack)
	})
}

// ErrorString logs an error message without a stack trace
func (l *Logger) ErrorString(message string, title ...string) {
	l.add(func() types.Entry {
		return types.NewErrorMessage(message, firstTitle(title))
	})
}

// Object logs a value for inspection
func (l *Logger) Object(data any, title ...string) {
	l.add(func() types.Entry {
		return types.NewObject(data, firstTitle(title))
	})
}

// Clear clears the mounted store, or the buffer when nothing is attached
func (l *Logger) Clear() {
	l.mu.Lock()
	if l.dispatch == nil {
		l.buffer = nil
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, state.ClearLogs{})
	l.drainLocked()
}

// add builds the entry under the lock so that creation order is call order
func (l *Logger) add(build func() types.Entry) {
	l.mu.Lock()
	e := build()
	if l.dispatch == nil {
		l.buffer = append(l.buffer, e)
		l.mu.Unlock()
		return
	}
	l.pending = append(l.pending, state.AddLog{Entry: e})
	l.drainLocked()
}

// drainLocked must be called with l.mu held and releases it. If another
// goroutine is already delivering, the queued actions are left to it.
func (l *Logger) drainLocked() {
	if l.draining {
		l.mu.Unlock()
		return
	}
	l.draining = true

	for len(l.pending) > 0 && l.dispatch != nil {
		batch := l.pending
		l.pending = nil
		dispatch, onAdded := l.dispatch, l.onAdded
		l.mu.Unlock()

		for _, a := range batch {
			dispatch(a)
			if add, ok := a.(state.AddLog); ok && onAdded != nil {
				onAdded(add.Entry)
			}
		}

		l.mu.Lock()
	}

	// Detached mid-drain: undelivered entries go back to the buffer. A queued
	// clear empties what was queued before it, as Clear does when unattached.
	// Entries buffered since the detach are newer than anything queued.
	if l.dispatch == nil && len(l.pending) > 0 {
		requeued := make([]types.Entry, 0, len(l.pending)+len(l.buffer))
		for _, a := range l.pending {
			switch a := a.(type) {
			case state.AddLog:
				requeued = append(requeued, a.Entry)
			case state.ClearLogs:
				requeued = requeued[:0]
			}
		}
		l.buffer = append(requeued, l.buffer...)
		l.pending = nil
	}

	l.draining = false
	l.mu.Unlock()
}

func firstTitle(title []string) string {
	for _, t := range title {
		if t != "" {
			return t
		}
	}
	return ""
}

type stackTracer interface {
	StackTrace() string
}

func stackOf(err error) string {
	if st, ok := err.(stackTracer); ok {
		if s := st.StackTrace(); s != "" {
			return s
		}
	}
	if err == nil {
		return ""
	}
	return captureStack(3)
}

// captureStack formats the goroutine stack starting skip frames above itself
func captureStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			sb.WriteString(frame.Function)
			sb.WriteString("\n\t")
			sb.WriteString(frame.File)
			sb.WriteByte(':')
			sb.WriteString(strconv.Itoa(frame.Line))
			sb.WriteByte('\n')
		}
		if !more {
			break
		}
	}
	return sb.String()
}
