// Package audio abstracts microphone capture behind a small Context and
// CaptureDevice pair so recording logic stays identical across the pulse
// and malgo backends, and feeds the level meter shown while recording.
package audio

import "strings"

// Substring markers that flag a device name as a bluetooth headset in the
// listings both backends produce. Lowercased before matching.
var bluetoothMarkers = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth reports whether a device name looks like a bluetooth headset,
// which the picker tags: headset profiles capture at reduced quality.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range bluetoothMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// DataCallback receives raw little-endian PCM from the device thread.
type DataCallback func(data []byte, frameCount uint32)

// CaptureConfig fixes the stream format; both backends resample to it.
type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Context enumerates devices and opens capture sessions. One per process.
type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

// CaptureDevice is one acquired microphone. The callback may be swapped or
// cleared while the stream runs.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}
