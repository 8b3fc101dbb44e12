package console

import "github.com/kcaldas/devconsole/pkg/types"

// Process-wide facade. It exists from process start so logging works before
// any Provider is mounted.
var defaultLogger = New()

// Default returns the process-wide Logger
func Default() *Logger {
	return defaultLogger
}

// Attach registers a dispatcher on the process-wide Logger
func Attach(dispatch DispatchFunc, onAdded func(types.Entry)) func() {
	return defaultLogger.Attach(dispatch, onAdded)
}

func Debug(message string, title ...string) {
	defaultLogger.Debug(message, title...)
}

func Error(err error, title ...string) {
	defaultLogger.Error(err, title...)
}

func ErrorString(message string, title ...string) {
	defaultLogger.ErrorString(message, title...)
}

func Object(data any, title ...string) {
	defaultLogger.Object(data, title...)
}

func Clear() {
	defaultLogger.Clear()
}
