package state

import "github.com/kcaldas/devconsole/pkg/types"

// Reduce applies an action to a state and returns the next state. It never
// modifies the input: every change to the log list allocates a new slice.
func Reduce(s types.State, a Action) types.State {
	switch a := a.(type) {
	case AddLog:
		logs := make([]types.Entry, 0, len(s.Logs)+1)
		logs = append(logs, a.Entry)
		logs = append(logs, s.Logs...)
		s.Logs = truncate(logs, s.Config.MaxLogs)
		s.UnreadCount++
	case SetLogs:
		logs := make([]types.Entry, 0, len(s.Logs)+len(a.Entries))
		logs = append(logs, s.Logs...)
		logs = append(logs, a.Entries...)
		s.Logs = truncate(logs, s.Config.MaxLogs)
		s.UnreadCount += len(a.Entries)
	case ClearLogs:
		s.Logs = []types.Entry{}
		s.UnreadCount = 0
	case SetConfig:
		// Shrinking MaxLogs does not truncate until the next add.
		s.Config = s.Config.Apply(a.Patch)
	case ResetUnread:
		s.UnreadCount = 0
	case IncrementUnread:
		s.UnreadCount++
	}
	return s
}

// truncate keeps the first max entries (the newest ones)
func truncate(logs []types.Entry, max int) []types.Entry {
	if max > 0 && len(logs) > max {
		return logs[:max:max]
	}
	return logs
}
