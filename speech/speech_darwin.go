//go:build darwin

package speech

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// saySynth uses the system `say` command. Kyoko is the built-in Japanese
// voice on macOS.
type saySynth struct{}

func NewSynthesizer() (Synthesizer, error) {
	return saySynth{}, nil
}

func (saySynth) Speak(ctx context.Context, text string, lang chat.Language) error {
	args := []string{text}
	if lang == chat.LangJapanese {
		args = []string{"-v", "Kyoko", text}
	}
	cmd := exec.CommandContext(ctx, "say", args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("say: %w", err)
	}
	return nil
}
