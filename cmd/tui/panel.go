package tui

import (
	"fmt"
	"strings"

	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/kcaldas/devconsole/pkg/view"
)

// Console is the part of a mounted provider the panel drives
type Console interface {
	State() types.State
	IsPanelOpen() bool
	SetPanelOpen(open bool)
	Clear()
	ExportFile(dir string) (string, error)
}

// Panel holds the presentation state of the log panel: filter, search,
// selection and the pending clear confirmation. It is independent of gocui.
type Panel struct {
	console   Console
	copier    view.Copier
	exportDir string

	filter       string
	search       string
	selected     int
	expanded     bool
	confirmClear bool
	notice       string
}

// NewPanel creates a closed panel over console
func NewPanel(console Console, copier view.Copier, exportDir string) *Panel {
	return &Panel{
		console:   console,
		copier:    copier,
		exportDir: exportDir,
		filter:    view.FilterAll,
	}
}

func (p *Panel) Open() bool     { return p.console.IsPanelOpen() }
func (p *Panel) Filter() string { return p.filter }
func (p *Panel) Search() string { return p.search }
func (p *Panel) Notice() string { return p.notice }

// ConfirmingClear reports whether the clear confirmation is showing
func (p *Panel) ConfirmingClear() bool { return p.confirmClear }

// Toggle opens or closes the panel
func (p *Panel) Toggle() {
	p.console.SetPanelOpen(!p.console.IsPanelOpen())
	p.notice = ""
}

// Close closes the panel, dismissing a pending confirmation first
func (p *Panel) Close() {
	if p.confirmClear {
		p.confirmClear = false
		return
	}
	p.console.SetPanelOpen(false)
}

// CycleFilter moves to the next level filter
func (p *Panel) CycleFilter() {
	p.filter = view.NextFilter(p.filter)
	p.selected = 0
}

// SetSearch replaces the search text
func (p *Panel) SetSearch(s string) {
	p.search = strings.TrimSpace(s)
	p.selected = 0
}

// Visible returns the filtered entries, oldest first
func (p *Panel) Visible() []types.Entry {
	return view.Filter(p.console.State().Logs, p.filter, p.search)
}

// Selected returns the entry under the cursor
func (p *Panel) Selected() (types.Entry, bool) {
	visible := p.Visible()
	if len(visible) == 0 {
		return types.Entry{}, false
	}
	return visible[p.clampedSelection(len(visible))], true
}

func (p *Panel) clampedSelection(n int) int {
	if p.selected >= n {
		return n - 1
	}
	if p.selected < 0 {
		return 0
	}
	return p.selected
}

// Move shifts the selection by delta within the visible entries
func (p *Panel) Move(delta int) {
	n := len(p.Visible())
	if n == 0 {
		p.selected = 0
		return
	}
	p.selected = p.clampedSelection(n) + delta
	p.selected = p.clampedSelection(n)
}

// SelectLast moves the cursor to the newest visible entry
func (p *Panel) SelectLast() {
	p.selected = len(p.Visible()) - 1
	if p.selected < 0 {
		p.selected = 0
	}
}

// ToggleDetails expands or collapses the selected entry
func (p *Panel) ToggleDetails() {
	p.expanded = !p.expanded
}

// RequestClear asks for confirmation before clearing
func (p *Panel) RequestClear() {
	p.confirmClear = true
}

// ConfirmClear answers the pending confirmation
func (p *Panel) ConfirmClear(yes bool) {
	if !p.confirmClear {
		return
	}
	p.confirmClear = false
	if yes {
		p.console.Clear()
		p.selected = 0
		p.notice = "Logs cleared"
	}
}

// Export writes the current list to the export directory
func (p *Panel) Export() {
	path, err := p.console.ExportFile(p.exportDir)
	if err != nil {
		p.notice = fmt.Sprintf("Export failed: %v", err)
		return
	}
	p.notice = "Exported to " + path
}

// CopySelected copies the selected entry to the clipboard
func (p *Panel) CopySelected() {
	e, ok := p.Selected()
	if !ok {
		return
	}
	if err := view.CopyEntry(p.copier, e); err != nil {
		p.notice = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	p.notice = "Copied"
}

// TriggerLine is the collapsed one-line view with the unread badge
func (p *Panel) TriggerLine() string {
	line := "🐞 devconsole"
	if badge := view.Badge(p.console.State().UnreadCount); badge != "" {
		line += " [" + badge + "]"
	}
	return line + "  (enter: open, ctrl+c: quit)"
}

// ListLines renders one line per visible entry, marking the selection
func (p *Panel) ListLines() []string {
	visible := p.Visible()
	if len(visible) == 0 {
		return []string{"No logs"}
	}
	sel := p.clampedSelection(len(visible))
	lines := make([]string, len(visible))
	for i, e := range visible {
		cursor := "  "
		if i == sel {
			cursor = "> "
		}
		lines[i] = fmt.Sprintf("%s%s %-6s %s %s", cursor, e.Level.Icon(), e.Level, view.FormatTime(e), view.Headline(e))
	}
	return lines
}

// DetailText is the expanded body of the selected entry, empty when collapsed
func (p *Panel) DetailText() string {
	if !p.expanded {
		return ""
	}
	e, ok := p.Selected()
	if !ok {
		return ""
	}
	return view.Details(e)
}

// StatusLine shows the filter, search, storage mode and the last notice
func (p *Panel) StatusLine() string {
	parts := []string{
		"filter: " + p.filter,
		view.StorageLabel(p.console.State().Config),
	}
	if p.search != "" {
		parts = append(parts, "search: "+p.search)
	}
	if p.notice != "" {
		parts = append(parts, p.notice)
	}
	return strings.Join(parts, " | ")
}
