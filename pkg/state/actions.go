package state

import "github.com/kcaldas/devconsole/pkg/types"

// Action is a state transition request. The set of actions is closed.
type Action interface {
	actionName() string
}

// AddLog prepends a single entry
type AddLog struct {
	Entry types.Entry
}

// SetLogs appends entries at the end of the list. Used for rehydration.
type SetLogs struct {
	Entries []types.Entry
}

// ClearLogs empties the list and resets the unread counter
type ClearLogs struct{}

// SetConfig shallow-merges a partial configuration
type SetConfig struct {
	Patch types.ConfigPatch
}

// ResetUnread marks every entry as read
type ResetUnread struct{}

// IncrementUnread bumps the unread counter by one
type IncrementUnread struct{}

func (AddLog) actionName() string          { return "ADD_LOG" }
func (SetLogs) actionName() string         { return "SET_LOGS" }
func (ClearLogs) actionName() string       { return "CLEAR_LOGS" }
func (SetConfig) actionName() string       { return "SET_CONFIG" }
func (ResetUnread) actionName() string     { return "RESET_UNREAD" }
func (IncrementUnread) actionName() string { return "INCREMENT_UNREAD" }

// Name returns the wire name of an action, e.g. "ADD_LOG"
func Name(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}

// ChangesLogs reports whether the action can modify the log list
func ChangesLogs(a Action) bool {
	switch a.(type) {
	case AddLog, SetLogs, ClearLogs:
		return true
	}
	return false
}
