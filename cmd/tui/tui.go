package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/awesome-gocui/gocui"

	"github.com/kcaldas/devconsole/pkg/events"
	"github.com/kcaldas/devconsole/pkg/logging"
)

// View constants
const (
	viewTrigger = "trigger"
	viewLogs    = "logs"
	viewDetails = "details"
	viewStatus  = "status"
	viewSearch  = "search"
	viewConfirm = "confirm"
)

// TUI renders a Panel with gocui
type TUI struct {
	g      *gocui.Gui
	panel  *Panel
	logger logging.Logger

	searching   bool
	unsubscribe []func()
}

// NewTUI creates the terminal UI. Store changes published on subscriber
// trigger a redraw.
func NewTUI(panel *Panel, subscriber events.Subscriber) (*TUI, error) {
	g, err := gocui.NewGui(gocui.Output256, true)
	if err != nil {
		return nil, err
	}

	t := &TUI{
		g:      g,
		panel:  panel,
		logger: logging.NewComponentLogger("tui"),
	}
	g.SetManagerFunc(t.layout)

	if err := t.setupKeyBindings(); err != nil {
		g.Close()
		return nil, err
	}
	t.setupEventSubscriptions(subscriber)
	return t, nil
}

// Run starts the main loop and blocks until the user quits
func (t *TUI) Run() error {
	if err := t.g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

// Close releases the terminal
func (t *TUI) Close() {
	for _, unsubscribe := range t.unsubscribe {
		unsubscribe()
	}
	t.g.Close()
}

func (t *TUI) setupEventSubscriptions(subscriber events.Subscriber) {
	if subscriber == nil {
		return
	}
	redraw := func(interface{}) {
		t.g.Update(func(*gocui.Gui) error { return nil })
	}
	t.unsubscribe = append(t.unsubscribe,
		subscriber.Subscribe(events.TopicStateChanged, redraw),
		subscriber.Subscribe(events.TopicEntryAdded, func(interface{}) {
			t.g.Update(func(*gocui.Gui) error {
				// an open panel shows everything, so nothing stays unread
				if t.panel.Open() {
					t.panel.console.SetPanelOpen(true)
				}
				return nil
			})
		}),
	)
}

func (t *TUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if !t.panel.Open() {
		for _, name := range []string{viewLogs, viewDetails, viewStatus, viewSearch, viewConfirm} {
			g.DeleteView(name)
		}
		v, err := g.SetView(viewTrigger, 0, maxY-3, maxX-1, maxY-1, 0)
		if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Clear()
		fmt.Fprint(v, t.panel.TriggerLine())
		if _, err := g.SetCurrentView(viewTrigger); err != nil {
			return err
		}
		return nil
	}
	g.DeleteView(viewTrigger)

	detail := t.panel.DetailText()
	listBottom := maxY - 4
	if detail != "" {
		listBottom = maxY / 2
	}

	v, err := g.SetView(viewLogs, 0, 0, maxX-1, listBottom, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	v.Title = " Logs "
	v.Clear()
	lines := t.panel.ListLines()
	fmt.Fprint(v, strings.Join(lines, "\n"))
	t.scrollToSelection(v, lines)

	if detail != "" {
		dv, err := g.SetView(viewDetails, 0, listBottom+1, maxX-1, maxY-4, 0)
		if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		dv.Title = " Details "
		dv.Wrap = true
		dv.Clear()
		fmt.Fprint(dv, detail)
	} else {
		g.DeleteView(viewDetails)
	}

	sv, err := g.SetView(viewStatus, 0, maxY-3, maxX-1, maxY-1, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	sv.Title = " f: filter  /: search  c: clear  e: export  y: copy  enter: details  esc: close "
	sv.Clear()
	fmt.Fprint(sv, t.panel.StatusLine())

	if err := t.layoutSearch(g, maxX, maxY); err != nil {
		return err
	}
	if err := t.layoutConfirm(g, maxX, maxY); err != nil {
		return err
	}

	if !t.searching && !t.panel.ConfirmingClear() {
		if _, err := g.SetCurrentView(viewLogs); err != nil {
			return err
		}
	}
	return nil
}

func (t *TUI) scrollToSelection(v *gocui.View, lines []string) {
	_, height := v.Size()
	for i, line := range lines {
		if strings.HasPrefix(line, "> ") {
			originY := 0
			if i >= height {
				originY = i - height + 1
			}
			v.SetOrigin(0, originY)
			return
		}
	}
}

func (t *TUI) layoutSearch(g *gocui.Gui, maxX, maxY int) error {
	if !t.searching {
		g.DeleteView(viewSearch)
		return nil
	}
	v, err := g.SetView(viewSearch, 0, maxY-3, maxX-1, maxY-1, 0)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		v.Title = " Search (enter: apply, esc: cancel) "
		v.Editable = true
		fmt.Fprint(v, t.panel.Search())
		v.SetCursor(len(t.panel.Search()), 0)
	}
	_, err = g.SetCurrentView(viewSearch)
	return err
}

func (t *TUI) layoutConfirm(g *gocui.Gui, maxX, maxY int) error {
	if !t.panel.ConfirmingClear() {
		g.DeleteView(viewConfirm)
		return nil
	}
	width, height := 50, 4
	x0, y0 := (maxX-width)/2, (maxY-height)/2
	v, err := g.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	v.Title = " Clear logs "
	v.Clear()
	fmt.Fprintln(v, "Are you sure you want to clear all logs?")
	fmt.Fprint(v, "Press 'y' for Yes, 'n' or ESC for No")
	_, err = g.SetCurrentView(viewConfirm)
	return err
}

func (t *TUI) setupKeyBindings() error {
	type binding struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, t.quit},

		{viewTrigger, gocui.KeyEnter, t.do(t.panel.Toggle)},
		{viewTrigger, 'o', t.do(t.panel.Toggle)},
		{viewTrigger, 'q', t.quit},

		{viewLogs, gocui.KeyEsc, t.do(t.panel.Close)},
		{viewLogs, 'o', t.do(t.panel.Toggle)},
		{viewLogs, gocui.KeyEnter, t.do(t.panel.ToggleDetails)},
		{viewLogs, gocui.KeyArrowUp, t.do(func() { t.panel.Move(-1) })},
		{viewLogs, gocui.KeyArrowDown, t.do(func() { t.panel.Move(1) })},
		{viewLogs, 'k', t.do(func() { t.panel.Move(-1) })},
		{viewLogs, 'j', t.do(func() { t.panel.Move(1) })},
		{viewLogs, 'G', t.do(t.panel.SelectLast)},
		{viewLogs, 'f', t.do(t.panel.CycleFilter)},
		{viewLogs, 'c', t.do(t.panel.RequestClear)},
		{viewLogs, 'e', t.do(t.panel.Export)},
		{viewLogs, 'y', t.do(t.panel.CopySelected)},
		{viewLogs, '/', t.do(func() { t.searching = true })},

		{viewSearch, gocui.KeyEnter, t.applySearch},
		{viewSearch, gocui.KeyEsc, t.do(func() { t.searching = false })},

		{viewConfirm, 'y', t.do(func() { t.panel.ConfirmClear(true) })},
		{viewConfirm, 'n', t.do(func() { t.panel.ConfirmClear(false) })},
		{viewConfirm, gocui.KeyEsc, t.do(func() { t.panel.ConfirmClear(false) })},
	}

	for _, b := range bindings {
		if err := t.g.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return fmt.Errorf("failed to bind key on %q: %w", b.view, err)
		}
	}
	return nil
}

// do adapts a panel action to a gocui handler
func (t *TUI) do(action func()) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		action()
		return nil
	}
}

func (t *TUI) applySearch(g *gocui.Gui, v *gocui.View) error {
	t.panel.SetSearch(v.Buffer())
	t.searching = false
	return nil
}

func (t *TUI) quit(*gocui.Gui, *gocui.View) error {
	t.logger.Debug("Quitting panel")
	return gocui.ErrQuit
}
