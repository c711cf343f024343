package audio

import (
	"math"
	"testing"

	"github.com/n3utr7no/Kaze-AI/encoder"
)

func sine(freq float64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/float64(encoder.SampleRate)))
	}
	return out
}

func TestAnalyzerSilenceFloor(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(make([]int16, analyzerWindow))

	for i, h := range a.Bars() {
		if h != barFloor {
			t.Errorf("bar %d = %v, want floor %v", i, h, barFloor)
		}
	}
}

func TestAnalyzerToneRaisesMatchingBin(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(sine(1000, analyzerWindow))

	bars := a.Bars()
	if len(bars) != NumBars {
		t.Fatalf("len(bars) = %d, want %d", len(bars), NumBars)
	}

	// 1 kHz is bin 3 in barFrequencies.
	if bars[3] <= barFloor {
		t.Errorf("1kHz bin = %v, want above floor", bars[3])
	}
	if bars[3] <= bars[7] {
		t.Errorf("1kHz bin (%v) should dominate 6kHz bin (%v)", bars[3], bars[7])
	}
	for i, h := range bars {
		if h > 1 {
			t.Errorf("bar %d = %v, exceeds 1", i, h)
		}
	}
}

func TestAnalyzerReset(t *testing.T) {
	a := NewAnalyzer()
	a.Feed(sine(1000, analyzerWindow))
	a.Reset()

	for i, h := range a.Bars() {
		if h != barFloor {
			t.Errorf("bar %d = %v after reset, want floor", i, h)
		}
	}
}
