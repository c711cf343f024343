// Package transcriber sends one captured utterance to the speech-to-text
// service and returns the matched source/translated text pair.
package transcriber

import (
	"context"
	"errors"
)

// ErrPartialPair marks a response where only one side of the pair came back.
// The contract is both-or-failed; a partial pair is treated as a failed call.
var ErrPartialPair = errors.New("transcription returned a partial pair")

// Pair is the matched source-language/translated-language text produced by
// speech-to-text. Both fields are non-empty or the call failed.
type Pair struct {
	Source     string
	Translated string
}

// Client transcribes one encoded audio payload. container is the negotiated
// audio container name ("flac", "wav"), used by the service to decode.
type Client interface {
	Transcribe(ctx context.Context, audio []byte, container string) (Pair, error)
}
