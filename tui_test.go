package main

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// runInit executes the model's Init command tree and collects every message
// it produces.
func runInit(t *testing.T, m tuiModel) []tea.Msg {
	t.Helper()
	msg := m.Init()()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, cmd := range batch {
		out = append(out, cmd())
	}
	return out
}

// The history feed's first snapshot is delivered synchronously into the
// program, so the feed must not open before the event loop is live:
// constructing the program leaves it untouched, and Init is what starts it.
func TestHistoryFeedDeferredUntilProgramInit(t *testing.T) {
	env := newSessionEnv(t)

	started := false
	app := &tuiApp{
		session: env.session,
		start:   func() error { started = true; return nil },
	}

	_ = NewTUIProgram(app)
	if started {
		t.Fatal("feed opened during program construction, before the event loop")
	}

	m := tuiModel{app: app, category: app.session.Category(), lang: app.session.Language()}
	for _, msg := range runInit(t, m) {
		if n, ok := msg.(NotificationMsg); ok {
			t.Errorf("unexpected notification %q", n.Text)
		}
	}
	if !started {
		t.Fatal("feed never opened from Init")
	}
}

func TestHistoryFeedStartFailureNotifies(t *testing.T) {
	app := &tuiApp{start: func() error { return errors.New("feed down") }}

	msg := startFeedCmd(app)()
	n, ok := msg.(NotificationMsg)
	if !ok || n.Text == "" {
		t.Fatalf("msg = %#v, want a notification", msg)
	}
}

func TestCategoryCycleNeverOffersSystem(t *testing.T) {
	c := categories[0]
	seen := map[string]bool{}
	for i := 0; i <= len(categories); i++ {
		if c == "System" {
			t.Fatal("cycle offered the reserved System category")
		}
		seen[c] = true
		c = nextCategory(c)
	}
	if !seen["Travel"] || !seen["Fashion"] {
		t.Errorf("cycle covers %v, want Travel and Fashion", seen)
	}
}
