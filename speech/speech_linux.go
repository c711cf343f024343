//go:build linux

package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// espeakSynth shells out to espeak-ng, which is what most distros ship for
// offline synthesis. Cancelling the context kills the process, cutting
// playback immediately.
type espeakSynth struct{}

func NewSynthesizer() (Synthesizer, error) {
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		return nil, fmt.Errorf("espeak-ng not installed: %w", err)
	}
	return espeakSynth{}, nil
}

func (espeakSynth) Speak(ctx context.Context, text string, lang chat.Language) error {
	voice := "en"
	if lang == chat.LangJapanese {
		voice = "ja"
	}
	cmd := exec.CommandContext(ctx, "espeak-ng", "-v", voice, text)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak-ng: %w", err)
	}
	return nil
}
