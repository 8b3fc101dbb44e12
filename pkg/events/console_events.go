package events

import "github.com/kcaldas/devconsole/pkg/types"

const (
	TopicStateChanged = "console.state.changed"
	TopicEntryAdded   = "console.entry.added"
	TopicLogsCleared  = "console.logs.cleared"
	TopicPanelToggled = "console.panel.toggled"
)

// StateChangedEvent is published after every store transition
type StateChangedEvent struct {
	Action string
	State  types.State
}

func (e StateChangedEvent) Topic() string { return TopicStateChanged }

// EntryAddedEvent is published once per accepted entry
type EntryAddedEvent struct {
	Entry       types.Entry
	UnreadCount int
}

func (e EntryAddedEvent) Topic() string { return TopicEntryAdded }

// LogsClearedEvent is published when the list is cleared
type LogsClearedEvent struct{}

func (e LogsClearedEvent) Topic() string { return TopicLogsCleared }

// PanelToggledEvent reports the panel opening or closing
type PanelToggledEvent struct {
	Open bool
}

func (e PanelToggledEvent) Topic() string { return TopicPanelToggled }

// Event is implemented by every published event
type Event interface {
	Topic() string
}

// PublishEvent publishes e on its own topic
func PublishEvent(p Publisher, e Event) {
	if p == nil {
		return
	}
	p.Publish(e.Topic(), e)
}
