// Package encoder turns captured PCM into an upload container. Capture
// devices differ by host, so the container is negotiated from an ordered
// preference list rather than assumed.
package encoder

import (
	"fmt"
	"time"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}

// Container pairs a container name (also its file extension on the wire)
// with a constructor. A constructor error means the host cannot produce that
// container.
type Container struct {
	Name string
	New  func() (Encoder, error)
}

// Preferred is the negotiation order: lossless first, raw-PCM WAV as the
// fallback every host supports.
func Preferred() []Container {
	return []Container{
		{Name: "flac", New: func() (Encoder, error) { return NewFlac() }},
		{Name: "wav", New: func() (Encoder, error) { return NewWav(), nil }},
	}
}

// Negotiate probes the preference list in order and returns the first
// container the host supports.
func Negotiate() (Encoder, string, error) {
	var firstErr error
	for _, c := range Preferred() {
		enc, err := c.New()
		if err == nil {
			return enc, c.Name, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", fmt.Errorf("no supported audio container: %w", firstErr)
}
