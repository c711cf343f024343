//go:build windows

package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/n3utr7no/Kaze-AI/chat"
)

// sapiSynth drives the built-in SAPI voices through PowerShell. Voice
// selection by culture falls back to the default voice when no Japanese
// voice is installed.
type sapiSynth struct{}

func NewSynthesizer() (Synthesizer, error) {
	return sapiSynth{}, nil
}

func (sapiSynth) Speak(ctx context.Context, text string, lang chat.Language) error {
	culture := "en-US"
	if lang == chat.LangJapanese {
		culture = "ja-JP"
	}
	escaped := strings.ReplaceAll(text, "'", "''")
	script := fmt.Sprintf(
		`Add-Type -AssemblyName System.Speech; `+
			`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; `+
			`try { $s.SelectVoiceByHints([System.Speech.Synthesis.VoiceGender]::NotSet, [System.Speech.Synthesis.VoiceAge]::NotSet, 0, [System.Globalization.CultureInfo]::new('%s')) } catch {}; `+
			`$s.Speak('%s')`, culture, escaped)
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("sapi: %w", err)
	}
	return nil
}
