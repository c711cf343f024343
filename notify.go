package main

import (
	"sync"
	"time"
)

const notifyDuration = 3 * time.Second

// Notifier is the single transient notification slot. Last write wins; the
// slot clears itself after notifyDuration unless replaced sooner.
type Notifier struct {
	duration time.Duration
	onChange func(string)

	mu   sync.Mutex
	text string
	gen  uint64
}

func NewNotifier(onChange func(string)) *Notifier {
	return &Notifier{duration: notifyDuration, onChange: onChange}
}

func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.text = msg
	fn := n.onChange
	d := n.duration
	n.mu.Unlock()

	if fn != nil {
		fn(msg)
	}

	time.AfterFunc(d, func() {
		n.mu.Lock()
		if n.gen != gen {
			// Replaced; the newer notification owns the slot.
			n.mu.Unlock()
			return
		}
		n.text = ""
		fn := n.onChange
		n.mu.Unlock()
		if fn != nil {
			fn("")
		}
	})
}

func (n *Notifier) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}
