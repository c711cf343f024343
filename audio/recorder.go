package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/n3utr7no/Kaze-AI/encoder"
)

const barInterval = 50 * time.Millisecond

// Recorder owns one microphone session: it acquires a capture device,
// negotiates an upload container, streams PCM blocks into the encoder and
// taps the same stream into the level analyzer. One Start/Stop cycle per
// utterance; the meter loop is cancelled exactly once on stop.
type Recorder struct {
	ctx    Context
	device *DeviceInfo
	onBars func([]float64)

	mu        sync.Mutex
	capture   CaptureDevice
	container string
	stopBars  func()
	barsDone  chan struct{}
	recording bool

	analyzer *Analyzer

	// encMu guards encoder state separately because the capture callback
	// may fire while Start/Stop hold mu.
	encMu   sync.Mutex
	enc     encoder.Encoder
	pending []int16
	stopped bool
}

// NewRecorder keeps the context and device for repeated Start/Stop cycles.
// onBars receives meter heights once per refresh while recording; it may be
// nil.
func NewRecorder(ctx Context, device *DeviceInfo, onBars func([]float64)) *Recorder {
	return &Recorder{
		ctx:      ctx,
		device:   device,
		onBars:   onBars,
		analyzer: NewAnalyzer(),
	}
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("recorder already started")
	}

	enc, container, err := encoder.Negotiate()
	if err != nil {
		return err
	}

	capture, err := r.ctx.NewCapture(r.device, CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		return fmt.Errorf("acquiring capture device: %w", err)
	}

	r.encMu.Lock()
	r.enc = enc
	r.pending = r.pending[:0]
	r.stopped = false
	r.encMu.Unlock()

	r.container = container
	r.capture = capture
	r.analyzer.Reset()

	capture.SetCallback(func(data []byte, frameCount uint32) {
		samples := make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		r.analyzer.Feed(samples)
		r.feed(samples)
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		r.capture = nil
		return fmt.Errorf("starting capture: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	var once sync.Once
	r.stopBars = func() { once.Do(func() { close(stop) }) }
	r.barsDone = done
	go r.barsLoop(stop, done)

	r.recording = true
	return nil
}

func (r *Recorder) barsLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(barInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if r.onBars != nil {
				r.onBars(r.analyzer.Bars())
			}
		}
	}
}

// feed accumulates PCM into encoder-sized blocks.
func (r *Recorder) feed(samples []int16) {
	r.encMu.Lock()
	defer r.encMu.Unlock()
	if r.stopped || r.enc == nil {
		return
	}
	r.pending = append(r.pending, samples...)
	for len(r.pending) >= encoder.BlockSize {
		block := r.pending[:encoder.BlockSize]
		start := time.Now()
		if err := r.enc.EncodeBlock(block); err != nil {
			return
		}
		r.enc.AddEncodeTime(time.Since(start))
		r.pending = r.pending[encoder.BlockSize:]
	}
}

// Stop releases the capture device and the meter loop, flushes the trailing
// partial block and returns the finished payload. A session with zero
// captured frames returns an empty payload and no error.
func (r *Recorder) Stop() ([]byte, string, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil, "", fmt.Errorf("recorder not started")
	}
	r.recording = false
	capture := r.capture
	container := r.container
	stopBars := r.stopBars
	barsDone := r.barsDone
	r.capture = nil
	r.mu.Unlock()

	capture.ClearCallback()
	capture.Stop()
	capture.Close()
	stopBars()
	<-barsDone

	r.encMu.Lock()
	defer r.encMu.Unlock()
	r.stopped = true

	if len(r.pending) > 0 {
		start := time.Now()
		if err := r.enc.EncodeBlock(r.pending); err != nil {
			return nil, "", fmt.Errorf("encoding final block: %w", err)
		}
		r.enc.AddEncodeTime(time.Since(start))
		r.pending = r.pending[:0]
	}

	if err := r.enc.Close(); err != nil {
		return nil, "", fmt.Errorf("closing encoder: %w", err)
	}
	if r.enc.TotalFrames() == 0 {
		return nil, container, nil
	}
	return r.enc.Bytes(), container, nil
}

// Container reports the negotiated upload container of the current or most
// recent session, "" before the first Start.
func (r *Recorder) Container() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.container
}

// EncodeTime reports cumulative time spent in the encoder for the last
// session, for the timing log line.
func (r *Recorder) EncodeTime() time.Duration {
	r.encMu.Lock()
	defer r.encMu.Unlock()
	if r.enc == nil {
		return 0
	}
	return r.enc.EncodeTime()
}
