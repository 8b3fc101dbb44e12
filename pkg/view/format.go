package view

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kcaldas/devconsole/pkg/types"
)

const maxBadge = 99

// FormatPayload renders a payload as indented JSON
func FormatPayload(data any) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return types.PayloadPlaceholder
	}
	return string(out)
}

// CopyText is the text placed on the clipboard for an entry: the payload when
// there is one, otherwise the message followed by its stack trace, if any.
func CopyText(e types.Entry) string {
	if e.Data != nil {
		if out, err := json.MarshalIndent(e.Data, "", "  "); err == nil {
			return string(out)
		}
		return e.Message
	}
	if e.Stack != "" {
		return e.Message + "\n\nStack Trace:\n" + e.Stack
	}
	return e.Message
}

// Badge is the unread counter shown on the trigger. Zero renders nothing.
func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > maxBadge:
		return fmt.Sprintf("%d+", maxBadge)
	default:
		return fmt.Sprintf("%d", unread)
	}
}

// StorageLabel describes where entries currently live
func StorageLabel(cfg types.Config) string {
	if !cfg.Persistence {
		return "SESSION MODE"
	}
	return "DRIVER: " + strings.ToUpper(string(cfg.PersistenceDriver))
}

// FormatTime renders an entry timestamp as local HH:MM:SS
func FormatTime(e types.Entry) string {
	t := e.Time()
	if t.IsZero() {
		return "--:--:--"
	}
	return t.Local().Format(time.TimeOnly)
}

// Headline is the one-line summary of an entry: "title: message"
func Headline(e types.Entry) string {
	if e.Title == "" {
		return e.Message
	}
	return e.Title + ": " + e.Message
}

// Details is the expanded body of an entry
func Details(e types.Entry) string {
	var b strings.Builder
	if e.Stack != "" {
		b.WriteString("Stack Trace:\n")
		b.WriteString(e.Stack)
	}
	if e.Data != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Payload:\n")
		b.WriteString(FormatPayload(e.Data))
	}
	if b.Len() == 0 {
		b.WriteString("Full message: ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Markdown renders an entry as a markdown document
func Markdown(e types.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", e.Level.Icon(), e.Level)
	if e.Title != "" {
		fmt.Fprintf(&b, "**%s**\n\n", e.Title)
	}
	fmt.Fprintf(&b, "%s\n\n", e.Message)
	fmt.Fprintf(&b, "_%s_ · `%s`\n", e.Timestamp, e.ID)
	if e.Stack != "" {
		fmt.Fprintf(&b, "\n## Stack Trace\n\n```\n%s\n```\n", strings.TrimRight(e.Stack, "\n"))
	}
	if e.Data != nil {
		fmt.Fprintf(&b, "\n## Payload\n\n```json\n%s\n```\n", FormatPayload(e.Data))
	}
	return b.String()
}
