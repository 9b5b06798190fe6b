package engine

// TrackID identifies a track inside the native engine. IDs are allocated by
// the engine and may become invalid without notice when the track is deleted;
// operations on a stale ID fail normally, they are never fatal.
type TrackID int64

// ClipID identifies a clip on a track. Like TrackID it is engine-owned and
// carries no lifecycle notification.
type ClipID int64

// TransportState is the engine-reported playback state.
type TransportState int32

const (
	StateStopped TransportState = 0
	StatePlaying TransportState = 1
	StatePaused  TransportState = 2
)

func (s TransportState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// BufferSizePreset is a named latency/stability trade-off. The engine maps
// each preset to an actual sample count internally; Samples reports the
// nominal mapping.
type BufferSizePreset int32

const (
	BufferLowest        BufferSizePreset = 0 // 64 samples
	BufferLow           BufferSizePreset = 1 // 128 samples
	BufferBalanced      BufferSizePreset = 2 // 256 samples
	BufferSafe          BufferSizePreset = 3 // 512 samples
	BufferHighStability BufferSizePreset = 4 // 1024 samples
)

// Samples returns the nominal sample count for the preset.
func (p BufferSizePreset) Samples() int {
	switch p {
	case BufferLowest:
		return 64
	case BufferLow:
		return 128
	case BufferSafe:
		return 512
	case BufferHighStability:
		return 1024
	default:
		return 256
	}
}

// LatencyMs returns the one-way latency of the preset at the engine's
// 48 kHz reference rate.
func (p BufferSizePreset) LatencyMs() float64 {
	return float64(p.Samples()) / 48000.0 * 1000.0
}

func (p BufferSizePreset) String() string {
	switch p {
	case BufferLowest:
		return "lowest"
	case BufferLow:
		return "low"
	case BufferBalanced:
		return "balanced"
	case BufferSafe:
		return "safe"
	case BufferHighStability:
		return "high-stability"
	default:
		return "unknown"
	}
}

// ParsePreset maps a preset name (as used in config files and CLI flags)
// back to its enum value. Unknown names fall back to BufferBalanced.
func ParsePreset(name string) BufferSizePreset {
	switch name {
	case "lowest":
		return BufferLowest
	case "low":
		return BufferLow
	case "safe":
		return BufferSafe
	case "high-stability":
		return BufferHighStability
	default:
		return BufferBalanced
	}
}

// WarpMode selects how a clip follows tempo changes.
type WarpMode int32

const (
	WarpPreservePitch WarpMode = 0 // time-stretch, pitch kept
	WarpRepitch       WarpMode = 1 // pitch follows speed
)

// Warp bundles the per-clip warp settings.
type Warp struct {
	Enabled bool
	Stretch float32
	Mode    WarpMode
}

// LatencyInfo is a point-in-time latency snapshot, not a subscription.
type LatencyInfo struct {
	BufferSizeSamples int
	InputLatencyMs    float64
	OutputLatencyMs   float64
	RoundtripMs       float64
}

// LatencyTestState is the state code of the engine's loopback measurement.
type LatencyTestState int32

const (
	LatencyTestIdle              LatencyTestState = 0
	LatencyTestWaitingForSilence LatencyTestState = 1
	LatencyTestPlaying           LatencyTestState = 2
	LatencyTestListening         LatencyTestState = 3
	LatencyTestAnalyzing         LatencyTestState = 4
	LatencyTestDone              LatencyTestState = 5
	LatencyTestError             LatencyTestState = 6
)

func (s LatencyTestState) String() string {
	switch s {
	case LatencyTestIdle:
		return "idle"
	case LatencyTestWaitingForSilence:
		return "waiting-for-silence"
	case LatencyTestPlaying:
		return "playing"
	case LatencyTestListening:
		return "listening"
	case LatencyTestAnalyzing:
		return "analyzing"
	case LatencyTestDone:
		return "done"
	case LatencyTestError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a measurement.
func (s LatencyTestState) Terminal() bool {
	return s == LatencyTestDone || s == LatencyTestError
}

// NoLatencyResult is the engine's sentinel for "no measurement available".
const NoLatencyResult = -1.0
