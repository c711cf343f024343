// Package speech reads bot reports aloud. At most one utterance is audible
// at a time; playback is keyed by a slot so a second request for the same
// slot acts as a stop toggle.
package speech

import (
	"context"
	"sync"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// Synthesizer speaks one utterance, blocking until it finishes or ctx is
// cancelled. Implementations live in the platform files.
type Synthesizer interface {
	Speak(ctx context.Context, text string, lang chat.Language) error
}

// Noop swallows every utterance, used when no synthesizer is available so
// the rest of the toggle machinery still behaves.
type Noop struct{}

func (Noop) Speak(ctx context.Context, _ string, _ chat.Language) error {
	return ctx.Err()
}

// Output serializes playback over a Synthesizer.
type Output struct {
	synth Synthesizer

	mu     sync.Mutex
	cancel context.CancelFunc
	slot   string
	gen    uint64
}

func NewOutput(synth Synthesizer) *Output {
	return &Output{synth: synth}
}

// Play starts speaking text for the given slot. If that slot is already
// playing, the call stops it instead. Any other playing slot is cancelled
// first, so only one utterance is ever audible.
func (o *Output) Play(text string, lang chat.Language, slot string) {
	o.mu.Lock()
	if o.cancel != nil && o.slot == slot {
		cancel := o.cancel
		o.cancel = nil
		o.slot = ""
		o.mu.Unlock()
		cancel()
		return
	}
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.slot = slot
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	go func() {
		defer cancel()
		o.synth.Speak(ctx, text, lang)

		// Clear the slot on natural completion so the next toggle
		// starts fresh. A newer Play has already taken over if the
		// generation moved on.
		o.mu.Lock()
		if o.gen == gen {
			o.cancel = nil
			o.slot = ""
		}
		o.mu.Unlock()
	}()
}

// Stop cancels whatever is playing, if anything.
func (o *Output) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.slot = ""
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Playing reports the active slot, or "" when idle.
func (o *Output) Playing() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.slot
}
