package speech

import (
	"context"
	"sync"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// FakeSynth blocks each Speak until released or cancelled, recording what it
// was asked to say.
type FakeSynth struct {
	mu      sync.Mutex
	calls   []FakeCall
	active  int
	release chan struct{}
}

type FakeCall struct {
	Text string
	Lang chat.Language
	Err  error // ctx error if cancelled, nil on natural completion
}

func NewFakeSynth() *FakeSynth {
	return &FakeSynth{release: make(chan struct{})}
}

func (f *FakeSynth) Speak(ctx context.Context, text string, lang chat.Language) error {
	f.mu.Lock()
	release := f.release
	f.active++
	f.mu.Unlock()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-release:
	}

	f.mu.Lock()
	f.active--
	f.calls = append(f.calls, FakeCall{Text: text, Lang: lang, Err: err})
	f.mu.Unlock()
	return err
}

// Active reports how many utterances are currently blocked in Speak.
func (f *FakeSynth) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Release completes the utterance currently blocked in Speak and arms a new
// gate for the next one.
func (f *FakeSynth) Release() {
	f.mu.Lock()
	close(f.release)
	f.release = make(chan struct{})
	f.mu.Unlock()
}

func (f *FakeSynth) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}
