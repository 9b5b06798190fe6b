package engine

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Engine is the typed facade over the native audio engine. Commands report
// failures as errors decoded from the engine's status strings; queries never
// fail, they fall back to documented defaults when the engine cannot answer.
// A mutex serializes all native calls, so one Engine is safe to share.
type Engine struct {
	mu sync.Mutex
	b  Bindings

	latencyPollInterval time.Duration
	latencyTestTimeout  time.Duration
}

// Options tunes the latency test polling. Zero values select the defaults.
type Options struct {
	LatencyPollInterval time.Duration // default 100ms
	LatencyTestTimeout  time.Duration // default 5s
}

// New wraps an existing Bindings. Used directly by tests; production code
// goes through Open.
func New(b Bindings, opts Options) *Engine {
	if opts.LatencyPollInterval <= 0 {
		opts.LatencyPollInterval = 100 * time.Millisecond
	}
	if opts.LatencyTestTimeout <= 0 {
		opts.LatencyTestTimeout = 5 * time.Second
	}
	return &Engine{
		b:                   b,
		latencyPollInterval: opts.LatencyPollInterval,
		latencyTestTimeout:  opts.LatencyTestTimeout,
	}
}

// Open loads the native library and initializes the engine and its audio
// graph. An empty libPath resolves the library automatically.
func Open(libPath string, opts Options) (*Engine, error) {
	b, err := OpenLibrary(libPath)
	if err != nil {
		return nil, err
	}

	e := New(b, opts)
	if err := e.command("init engine", e.b.InitEngine); err != nil {
		b.Close()
		return nil, err
	}
	if err := e.command("init audio graph", e.b.InitGraph); err != nil {
		b.Close()
		return nil, err
	}
	log.Printf("engine: initialized")
	return e, nil
}

// Close releases the native library handle. The Engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Printf("engine: closing")
	e.b.Close()
}

// statusError decodes an engine status string. The engine reports failures
// as "Error: <cause>"; anything else is a success message.
func statusError(op, status string) error {
	if cause, ok := strings.CutPrefix(status, "Error: "); ok {
		return fmt.Errorf("%s: %s", op, cause)
	}
	return nil
}

// command runs a native status-returning call under the lock. Panics out of
// the boundary are absorbed and reported as ordinary errors; they never
// reach the caller.
func (e *Engine) command(op string, call func() string) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: %s: native call panicked: %v", op, r)
			err = fmt.Errorf("%s: native call failed: %v", op, r)
		}
	}()
	return statusError(op, call())
}

// queryF64 runs a native float query, substituting the fallback when the
// boundary panics.
func (e *Engine) queryF64(op string, fallback float64, call func() float64) (v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: %s: native call panicked, using fallback: %v", op, r)
			v = fallback
		}
	}()
	return call()
}

// queryI32 is queryF64 for int32 queries.
func (e *Engine) queryI32(op string, fallback int32, call func() int32) (v int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: %s: native call panicked, using fallback: %v", op, r)
			v = fallback
		}
	}()
	return call()
}

// Transport

// Play starts or resumes playback from the current playhead.
func (e *Engine) Play() error { return e.command("play", e.b.Play) }

// Pause halts playback keeping the playhead in place.
func (e *Engine) Pause() error { return e.command("pause", e.b.Pause) }

// Stop halts playback and rewinds the playhead to zero.
func (e *Engine) Stop() error { return e.command("stop", e.b.Stop) }

// Seek moves the playhead. The engine clamps out-of-range positions.
func (e *Engine) Seek(seconds float64) error {
	return e.command("seek", func() string { return e.b.Seek(seconds) })
}

// PlayheadPosition reports the playhead in seconds, 0.0 when unavailable.
func (e *Engine) PlayheadPosition() float64 {
	return e.queryF64("playhead position", 0.0, e.b.PlayheadPosition)
}

// State reports the transport state. Unknown or unavailable states read as
// stopped.
func (e *Engine) State() TransportState {
	code := e.queryI32("transport state", int32(StateStopped), e.b.TransportState)
	switch s := TransportState(code); s {
	case StateStopped, StatePlaying, StatePaused:
		return s
	default:
		return StateStopped
	}
}

// Tracks and clips

// CreateTrack adds a track of the given kind ("audio", "midi") and returns
// its engine-assigned ID.
func (e *Engine) CreateTrack(kind, name string) (id TrackID, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: create track: native call panicked: %v", r)
			id, err = -1, fmt.Errorf("create track: native call failed: %v", r)
		}
	}()
	raw := e.b.CreateTrack(kind, name)
	if raw < 0 {
		return -1, fmt.Errorf("create track: engine rejected %s track %q", kind, name)
	}
	return TrackID(raw), nil
}

// DeleteTrack removes a track. Clip handles on the track become stale
// silently; later operations on them fail normally.
func (e *Engine) DeleteTrack(track TrackID) error {
	return e.command("delete track", func() string { return e.b.DeleteTrack(uint64(track)) })
}

// LoadClip loads an audio file onto a track at the given timeline position.
// An unreadable or undecodable file is an ordinary error.
func (e *Engine) LoadClip(path string, track TrackID, startTime float64) (id ClipID, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: load clip: native call panicked: %v", r)
			id, err = -1, fmt.Errorf("load clip: native call failed: %v", r)
		}
	}()
	raw := e.b.LoadClip(path, uint64(track), startTime)
	if raw < 0 {
		return -1, fmt.Errorf("load clip: engine could not load %s", path)
	}
	return ClipID(raw), nil
}

// RemoveClip deletes a clip from a track. It reports whether the clip was
// actually present.
func (e *Engine) RemoveClip(track TrackID, clip ClipID) (removed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: remove clip: native call panicked: %v", r)
			removed, err = false, fmt.Errorf("remove clip: native call failed: %v", r)
		}
	}()
	switch e.b.RemoveClip(uint64(track), uint64(clip)) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("remove clip: engine error")
	}
}

// ClipDuration reports a clip's source duration in seconds, 0.0 when the
// clip is unknown.
func (e *Engine) ClipDuration(clip ClipID) float64 {
	return e.queryF64("clip duration", 0.0, func() float64 {
		return e.b.ClipDuration(uint64(clip))
	})
}

// SetClipStartTime moves a clip on the timeline.
func (e *Engine) SetClipStartTime(track TrackID, clip ClipID, startTime float64) error {
	return e.command("set clip start time", func() string {
		return e.b.SetClipStartTime(uint64(track), uint64(clip), startTime)
	})
}

// SetClipOffset changes where inside the source audio the clip begins.
func (e *Engine) SetClipOffset(track TrackID, clip ClipID, offset float64) error {
	return e.command("set clip offset", func() string {
		return e.b.SetClipOffset(uint64(track), uint64(clip), offset)
	})
}

// SetClipDuration trims or extends the clip's play length on the timeline.
func (e *Engine) SetClipDuration(track TrackID, clip ClipID, duration float64) error {
	return e.command("set clip duration", func() string {
		return e.b.SetClipDuration(uint64(track), uint64(clip), duration)
	})
}

// SetClipGain sets the clip gain in dB.
func (e *Engine) SetClipGain(track TrackID, clip ClipID, gainDB float32) error {
	return e.command("set clip gain", func() string {
		return e.b.SetClipGain(uint64(track), uint64(clip), gainDB)
	})
}

// SetClipWarp applies warp settings to a clip.
func (e *Engine) SetClipWarp(track TrackID, clip ClipID, warp Warp) error {
	return e.command("set clip warp", func() string {
		return e.b.SetClipWarp(uint64(track), uint64(clip), warp.Enabled, warp.Stretch, int32(warp.Mode))
	})
}

// SetClipTranspose transposes a clip by semitones plus fine cents.
func (e *Engine) SetClipTranspose(track TrackID, clip ClipID, semitones, cents int32) error {
	return e.command("set clip transpose", func() string {
		return e.b.SetClipTranspose(uint64(track), uint64(clip), semitones, cents)
	})
}

// WaveformPeaks computes peak values for drawing a clip's waveform at the
// given horizontal resolution. The result is never nil; any failure yields
// an empty slice.
func (e *Engine) WaveformPeaks(clip ClipID, resolution int) (peaks []float64) {
	if resolution <= 0 {
		return []float64{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: waveform peaks: native call panicked: %v", r)
			peaks = []float64{}
		}
	}()
	peaks = e.b.WaveformPeaks(uint64(clip), resolution)
	if peaks == nil {
		peaks = []float64{}
	}
	return peaks
}

// Buffer size and latency

// SetBufferSize applies a buffer size preset. The device restarts with the
// new size; the transport keeps its state.
func (e *Engine) SetBufferSize(preset BufferSizePreset) error {
	return e.command("set buffer size", func() string {
		return e.b.SetBufferSize(int32(preset))
	})
}

// BufferPreset reports the active preset, falling back to balanced.
func (e *Engine) BufferPreset() BufferSizePreset {
	code := e.queryI32("buffer size preset", int32(BufferBalanced), e.b.BufferSizePreset)
	switch p := BufferSizePreset(code); p {
	case BufferLowest, BufferLow, BufferBalanced, BufferSafe, BufferHighStability:
		return p
	default:
		return BufferBalanced
	}
}

// ActualBufferSize reports the sample count the device actually granted,
// which may differ from the preset's nominal size.
func (e *Engine) ActualBufferSize() (size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: actual buffer size: native call panicked, using fallback: %v", r)
			size = 256
		}
	}()
	size = int(e.b.ActualBufferSize())
	if size <= 0 {
		size = 256
	}
	return size
}

// Latency reports the current latency snapshot. When the engine has no
// device running the snapshot carries the balanced-preset defaults.
func (e *Engine) Latency() (info LatencyInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: latency info: native call panicked, using fallback: %v", r)
			info = LatencyInfo{BufferSizeSamples: 256, InputLatencyMs: 5.3, OutputLatencyMs: 5.3, RoundtripMs: 10.7}
		}
	}()
	bufferSize, inputMs, outputMs, roundtripMs := e.b.LatencyInfo()
	return LatencyInfo{
		BufferSizeSamples: int(bufferSize),
		InputLatencyMs:    float64(inputMs),
		OutputLatencyMs:   float64(outputMs),
		RoundtripMs:       float64(roundtripMs),
	}
}

// Timing

// SetTempo sets the project tempo in BPM.
func (e *Engine) SetTempo(bpm float64) error {
	return e.command("set tempo", func() string { return e.b.SetTempo(bpm) })
}

// Tempo reports the project tempo, 120 BPM when unavailable.
func (e *Engine) Tempo() float64 {
	return e.queryF64("tempo", 120.0, e.b.Tempo)
}

// SetMetronomeEnabled toggles the metronome click.
func (e *Engine) SetMetronomeEnabled(enabled bool) error {
	return e.command("set metronome", func() string { return e.b.SetMetronomeEnabled(enabled) })
}

// MetronomeEnabled reports the metronome toggle, enabled when unavailable.
func (e *Engine) MetronomeEnabled() (enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: metronome enabled: native call panicked, using fallback: %v", r)
			enabled = true
		}
	}()
	return e.b.MetronomeEnabled()
}

// SetTimeSignature sets the beats per bar.
func (e *Engine) SetTimeSignature(beatsPerBar uint32) error {
	return e.command("set time signature", func() string {
		return e.b.SetTimeSignature(beatsPerBar)
	})
}

// TimeSignature reports beats per bar, 4 when unavailable.
func (e *Engine) TimeSignature() (beats uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: time signature: native call panicked, using fallback: %v", r)
			beats = 4
		}
	}()
	beats = e.b.TimeSignature()
	if beats == 0 {
		beats = 4
	}
	return beats
}
