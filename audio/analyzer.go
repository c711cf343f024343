package audio

import (
	"math"
	"sync"

	"github.com/n3utr7no/Kaze-AI/encoder"
)

// NumBars is the number of frequency bins shown in the recording meter.
const NumBars = 8

const (
	analyzerWindow = 2048
	barFloor       = 0.04
)

// Bin center frequencies in Hz, voice-weighted: most speech energy sits
// below 4 kHz at a 16 kHz capture rate.
var barFrequencies = [NumBars]float64{
	120, 250, 500, 1000, 1800, 2800, 4200, 6000,
}

// Analyzer taps the live capture stream and exposes per-bin magnitudes for
// the level meter. Feed is called from the capture callback; Bars is polled
// once per display refresh from the meter loop.
type Analyzer struct {
	mu     sync.Mutex
	ring   [analyzerWindow]float64
	pos    int
	filled bool
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Feed(samples []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.ring[a.pos] = float64(s) / 32768.0
		a.pos++
		if a.pos == analyzerWindow {
			a.pos = 0
			a.filled = true
		}
	}
}

// Bars returns one height per frequency bin, linearly scaled into
// [barFloor, 1]. The floor keeps the meter visible at silence.
func (a *Analyzer) Bars() []float64 {
	a.mu.Lock()
	window := a.snapshot()
	a.mu.Unlock()

	bars := make([]float64, NumBars)
	for i, freq := range barFrequencies {
		mag := goertzel(window, freq, float64(encoder.SampleRate))
		h := mag * 4
		if h < barFloor {
			h = barFloor
		}
		if h > 1 {
			h = 1
		}
		bars[i] = h
	}
	return bars
}

func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.ring = [analyzerWindow]float64{}
	a.pos = 0
	a.filled = false
	a.mu.Unlock()
}

// snapshot returns the window in chronological order. Caller holds the lock.
func (a *Analyzer) snapshot() []float64 {
	out := make([]float64, 0, analyzerWindow)
	if a.filled {
		out = append(out, a.ring[a.pos:]...)
	}
	out = append(out, a.ring[:a.pos]...)
	return out
}

// goertzel computes the normalized magnitude of a single frequency in the
// window. Cheaper than a full FFT for a handful of bins.
func goertzel(window []float64, freq, sampleRate float64) float64 {
	n := len(window)
	if n == 0 {
		return 0
	}
	k := math.Round(float64(n) * freq / sampleRate)
	w := 2 * math.Pi * k / float64(n)
	coeff := 2 * math.Cos(w)

	var s0, s1, s2 float64
	for _, x := range window {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * 2 / float64(n)
}
