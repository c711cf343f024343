package encoder

import (
	"encoding/binary"
	"testing"
)

func TestWavEncoder(t *testing.T) {
	samples := sineSamples(BlockSize + 100)

	enc := NewWav()
	if err := enc.EncodeBlock(samples[:BlockSize]); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.EncodeBlock(samples[BlockSize:]); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != uint64(len(samples)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(samples))
	}

	b := enc.Bytes()
	if len(b) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("output size = %d, want %d", len(b), wavHeaderSize+len(samples)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(b[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint16(b[34:36]); got != BitsPerSample {
		t.Errorf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}

	// First sample survives the round trip.
	if got := int16(binary.LittleEndian.Uint16(b[wavHeaderSize:])); got != samples[0] {
		t.Errorf("first sample = %d, want %d", got, samples[0])
	}
}

func TestNegotiatePrefersFlac(t *testing.T) {
	enc, name, err := Negotiate()
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if name != "flac" {
		t.Errorf("container = %q, want \"flac\"", name)
	}
	if _, ok := enc.(*FlacEncoder); !ok {
		t.Errorf("encoder type = %T, want *FlacEncoder", enc)
	}
}
