package main

import "github.com/n3utr7no/Kaze-AI/chat"

// EventSink abstracts the display layer: the session, store and notifier
// push into it, and the Bubble Tea program consumes the same events whether
// running interactively or under test.
type EventSink interface {
	StateChanged(s State)
	History(msgs []chat.Message)
	Bars(levels []float64)
	Notification(text string)
}
