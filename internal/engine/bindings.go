package engine

// Bindings is the raw call surface of the native audio engine. It is a pure
// marshaling layer: status strings come back verbatim (empty string when the
// engine returned a null pointer), numeric queries come back as the engine
// reported them, and native memory acquired during a call is released before
// the call returns. Interpretation of results — fallbacks, error decoding —
// is the Engine facade's job.
//
// The production implementation loads the engine shared library via purego
// (see lib.go); tests supply scripted fakes.
type Bindings interface {
	// Lifecycle
	InitEngine() string
	InitGraph() string
	Close()

	// Transport
	Play() string
	Pause() string
	Stop() string
	Seek(seconds float64) string
	PlayheadPosition() float64
	TransportState() int32

	// Tracks and clips
	CreateTrack(kind, name string) int64
	DeleteTrack(track uint64) string
	LoadClip(path string, track uint64, startTime float64) int64
	RemoveClip(track, clip uint64) int32
	ClipDuration(clip uint64) float64
	SetClipStartTime(track, clip uint64, startTime float64) string
	SetClipOffset(track, clip uint64, offset float64) string
	SetClipDuration(track, clip uint64, duration float64) string
	SetClipGain(track, clip uint64, gainDB float32) string
	SetClipWarp(track, clip uint64, enabled bool, stretch float32, mode int32) string
	SetClipTranspose(track, clip uint64, semitones, cents int32) string
	WaveformPeaks(clip uint64, resolution int) []float64

	// Buffer size and latency
	SetBufferSize(preset int32) string
	BufferSizePreset() int32
	ActualBufferSize() uint32
	LatencyInfo() (bufferSize uint32, inputMs, outputMs, roundtripMs float32)

	// Latency test
	StartLatencyTest() string
	StopLatencyTest() string
	LatencyTestStatus() (state int32, resultMs float32)
	LatencyTestError() (msg string, ok bool)

	// Timing
	SetTempo(bpm float64) string
	Tempo() float64
	SetMetronomeEnabled(enabled bool) string
	MetronomeEnabled() bool
	SetTimeSignature(beatsPerBar uint32) string
	TimeSignature() uint32
}
