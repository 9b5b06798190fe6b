//go:build darwin || linux || freebsd

package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// lib is the purego-backed Bindings implementation. One instance owns one
// dlopen handle; all native memory acquired inside a method is released
// before the method returns.
type lib struct {
	handle uintptr

	fnInitEngine func() uintptr
	fnInitGraph  func() uintptr

	fnPlay             func() uintptr
	fnPause            func() uintptr
	fnStop             func() uintptr
	fnSeek             func(float64) uintptr
	fnPlayheadPosition func() float64
	fnTransportState   func() int32

	fnCreateTrack      func(uintptr, uintptr) int64
	fnDeleteTrack      func(uint64) uintptr
	fnLoadClip         func(uintptr, uint64, float64) int64
	fnRemoveClip       func(uint64, uint64) int32
	fnClipDuration     func(uint64) float64
	fnSetClipStartTime func(uint64, uint64, float64) uintptr
	fnSetClipOffset    func(uint64, uint64, float64) uintptr
	fnSetClipDuration  func(uint64, uint64, float64) uintptr
	fnSetClipGain      func(uint64, uint64, float32) uintptr
	fnSetClipWarp      func(uint64, uint64, bool, float32, int32) uintptr
	fnSetClipTranspose func(uint64, uint64, int32, int32) uintptr

	fnWaveformPeaks     func(uint64, uintptr, uintptr) uintptr
	fnFreeWaveformPeaks func(uintptr, uintptr)

	fnSetBufferSize    func(int32) uintptr
	fnBufferSizePreset func() int32
	fnActualBufferSize func() uint32
	fnLatencyInfo      func(uintptr, uintptr, uintptr, uintptr)

	fnStartLatencyTest  func() uintptr
	fnStopLatencyTest   func() uintptr
	fnLatencyTestStatus func(uintptr, uintptr)
	fnLatencyTestError  func() uintptr

	fnSetTempo         func(float64) uintptr
	fnTempo            func() float64
	fnSetMetronome     func(int32) uintptr
	fnMetronome        func() int32
	fnSetTimeSignature func(uint32) uintptr
	fnTimeSignature    func() uint32

	fnFreeString func(uintptr)
}

// libraryPath resolves the engine shared library. The BOOJY_ENGINE_LIB
// environment variable wins, then a search list relative to the working
// directory and the executable.
func libraryPath() string {
	if path := os.Getenv("BOOJY_ENGINE_LIB"); path != "" {
		return path
	}

	var libName string
	switch runtime.GOOS {
	case "darwin":
		libName = "libboojy_engine.dylib"
	default:
		libName = "libboojy_engine.so"
	}

	searchPaths := []string{
		libName,
		filepath.Join("engine", "target", "release", libName),
		filepath.Join("engine", "target", "debug", libName),
	}
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths,
			filepath.Join(execDir, libName),
			filepath.Join(execDir, "..", "lib", libName),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}

	// Let the dynamic loader search its own paths.
	return libName
}

// OpenLibrary loads the engine shared library and registers its exported
// functions. An empty path means "resolve automatically".
func OpenLibrary(path string) (Bindings, error) {
	if path == "" {
		path = libraryPath()
	}
	log.Printf("engine: loading native library from %s", path)

	handle, err := purego.Dlopen(path, purego.RTLD_LAZY)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine library from %s: %w", path, err)
	}

	l := &lib{handle: handle}

	purego.RegisterLibFunc(&l.fnInitEngine, handle, "init_audio_engine_ffi")
	purego.RegisterLibFunc(&l.fnInitGraph, handle, "init_audio_graph_ffi")

	purego.RegisterLibFunc(&l.fnPlay, handle, "transport_play_ffi")
	purego.RegisterLibFunc(&l.fnPause, handle, "transport_pause_ffi")
	purego.RegisterLibFunc(&l.fnStop, handle, "transport_stop_ffi")
	purego.RegisterLibFunc(&l.fnSeek, handle, "transport_seek_ffi")
	purego.RegisterLibFunc(&l.fnPlayheadPosition, handle, "get_playhead_position_ffi")
	purego.RegisterLibFunc(&l.fnTransportState, handle, "get_transport_state_ffi")

	purego.RegisterLibFunc(&l.fnCreateTrack, handle, "create_track_ffi")
	purego.RegisterLibFunc(&l.fnDeleteTrack, handle, "delete_track_ffi")
	purego.RegisterLibFunc(&l.fnLoadClip, handle, "load_audio_file_to_track_ffi")
	purego.RegisterLibFunc(&l.fnRemoveClip, handle, "remove_audio_clip_ffi")
	purego.RegisterLibFunc(&l.fnClipDuration, handle, "get_clip_duration_ffi")
	purego.RegisterLibFunc(&l.fnSetClipStartTime, handle, "set_clip_start_time_ffi")
	purego.RegisterLibFunc(&l.fnSetClipOffset, handle, "set_clip_offset_ffi")
	purego.RegisterLibFunc(&l.fnSetClipDuration, handle, "set_clip_duration_ffi")
	purego.RegisterLibFunc(&l.fnSetClipGain, handle, "set_audio_clip_gain_ffi")
	purego.RegisterLibFunc(&l.fnSetClipWarp, handle, "set_audio_clip_warp_ffi")
	purego.RegisterLibFunc(&l.fnSetClipTranspose, handle, "set_audio_clip_transpose_ffi")

	purego.RegisterLibFunc(&l.fnWaveformPeaks, handle, "get_waveform_peaks_ffi")
	purego.RegisterLibFunc(&l.fnFreeWaveformPeaks, handle, "free_waveform_peaks_ffi")

	purego.RegisterLibFunc(&l.fnSetBufferSize, handle, "set_buffer_size_ffi")
	purego.RegisterLibFunc(&l.fnBufferSizePreset, handle, "get_buffer_size_preset_ffi")
	purego.RegisterLibFunc(&l.fnActualBufferSize, handle, "get_actual_buffer_size_ffi")
	purego.RegisterLibFunc(&l.fnLatencyInfo, handle, "get_latency_info_ffi")

	purego.RegisterLibFunc(&l.fnStartLatencyTest, handle, "start_latency_test_ffi")
	purego.RegisterLibFunc(&l.fnStopLatencyTest, handle, "stop_latency_test_ffi")
	purego.RegisterLibFunc(&l.fnLatencyTestStatus, handle, "get_latency_test_status_ffi")
	purego.RegisterLibFunc(&l.fnLatencyTestError, handle, "get_latency_test_error_ffi")

	purego.RegisterLibFunc(&l.fnSetTempo, handle, "set_tempo_ffi")
	purego.RegisterLibFunc(&l.fnTempo, handle, "get_tempo_ffi")
	purego.RegisterLibFunc(&l.fnSetMetronome, handle, "set_metronome_enabled_ffi")
	purego.RegisterLibFunc(&l.fnMetronome, handle, "is_metronome_enabled_ffi")
	purego.RegisterLibFunc(&l.fnSetTimeSignature, handle, "set_time_signature_ffi")
	purego.RegisterLibFunc(&l.fnTimeSignature, handle, "get_time_signature_ffi")

	purego.RegisterLibFunc(&l.fnFreeString, handle, "free_rust_string")

	return l, nil
}

// goString copies a NUL-terminated native string into Go memory.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var length int
	for {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(length)))
		if b == 0 {
			break
		}
		length++
		if length > 1<<20 {
			// No terminator within a sane distance; the pointer is
			// corrupt, treat it like null rather than return garbage.
			return ""
		}
	}
	if length == 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		buf[i] = *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return string(buf)
}

// status copies a native status string and frees the engine allocation.
// Null pointers come back as the empty string.
func (l *lib) status(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	defer l.fnFreeString(ptr)
	return goString(ptr)
}

// cstr returns a NUL-terminated byte slice for passing text to the engine.
// The caller keeps the slice alive across the native call.
func cstr(s string) []byte {
	return append([]byte(s), 0)
}

func (l *lib) InitEngine() string { return l.status(l.fnInitEngine()) }
func (l *lib) InitGraph() string  { return l.status(l.fnInitGraph()) }

func (l *lib) Close() {
	if l.handle != 0 {
		if err := purego.Dlclose(l.handle); err != nil {
			log.Printf("engine: failed to close library handle: %v", err)
		}
		l.handle = 0
	}
}

func (l *lib) Play() string  { return l.status(l.fnPlay()) }
func (l *lib) Pause() string { return l.status(l.fnPause()) }
func (l *lib) Stop() string  { return l.status(l.fnStop()) }

func (l *lib) Seek(seconds float64) string { return l.status(l.fnSeek(seconds)) }

func (l *lib) PlayheadPosition() float64 { return l.fnPlayheadPosition() }
func (l *lib) TransportState() int32     { return l.fnTransportState() }

func (l *lib) CreateTrack(kind, name string) int64 {
	kindBytes := cstr(kind)
	nameBytes := cstr(name)
	id := l.fnCreateTrack(
		uintptr(unsafe.Pointer(&kindBytes[0])),
		uintptr(unsafe.Pointer(&nameBytes[0])),
	)
	runtime.KeepAlive(kindBytes)
	runtime.KeepAlive(nameBytes)
	return id
}

func (l *lib) DeleteTrack(track uint64) string {
	return l.status(l.fnDeleteTrack(track))
}

func (l *lib) LoadClip(path string, track uint64, startTime float64) int64 {
	pathBytes := cstr(path)
	id := l.fnLoadClip(uintptr(unsafe.Pointer(&pathBytes[0])), track, startTime)
	runtime.KeepAlive(pathBytes)
	return id
}

func (l *lib) RemoveClip(track, clip uint64) int32 {
	return l.fnRemoveClip(track, clip)
}

func (l *lib) ClipDuration(clip uint64) float64 {
	return l.fnClipDuration(clip)
}

func (l *lib) SetClipStartTime(track, clip uint64, startTime float64) string {
	return l.status(l.fnSetClipStartTime(track, clip, startTime))
}

func (l *lib) SetClipOffset(track, clip uint64, offset float64) string {
	return l.status(l.fnSetClipOffset(track, clip, offset))
}

func (l *lib) SetClipDuration(track, clip uint64, duration float64) string {
	return l.status(l.fnSetClipDuration(track, clip, duration))
}

func (l *lib) SetClipGain(track, clip uint64, gainDB float32) string {
	return l.status(l.fnSetClipGain(track, clip, gainDB))
}

func (l *lib) SetClipWarp(track, clip uint64, enabled bool, stretch float32, mode int32) string {
	return l.status(l.fnSetClipWarp(track, clip, enabled, stretch, mode))
}

func (l *lib) SetClipTranspose(track, clip uint64, semitones, cents int32) string {
	return l.status(l.fnSetClipTranspose(track, clip, semitones, cents))
}

func (l *lib) WaveformPeaks(clip uint64, resolution int) []float64 {
	var length uintptr
	ptr := l.fnWaveformPeaks(clip, uintptr(resolution), uintptr(unsafe.Pointer(&length)))
	if ptr == 0 {
		return nil
	}
	defer l.fnFreeWaveformPeaks(ptr, length)

	peaks := make([]float64, length)
	for i := uintptr(0); i < length; i++ {
		peaks[i] = float64(*(*float32)(unsafe.Pointer(ptr + i*4)))
	}
	return peaks
}

func (l *lib) SetBufferSize(preset int32) string {
	return l.status(l.fnSetBufferSize(preset))
}

func (l *lib) BufferSizePreset() int32  { return l.fnBufferSizePreset() }
func (l *lib) ActualBufferSize() uint32 { return l.fnActualBufferSize() }

func (l *lib) LatencyInfo() (uint32, float32, float32, float32) {
	// The engine only writes the out-params when a snapshot is available,
	// so seed them with the documented fallbacks.
	bufferSize := uint32(256)
	inputMs := float32(5.3)
	outputMs := float32(5.3)
	roundtripMs := float32(10.7)
	l.fnLatencyInfo(
		uintptr(unsafe.Pointer(&bufferSize)),
		uintptr(unsafe.Pointer(&inputMs)),
		uintptr(unsafe.Pointer(&outputMs)),
		uintptr(unsafe.Pointer(&roundtripMs)),
	)
	return bufferSize, inputMs, outputMs, roundtripMs
}

func (l *lib) StartLatencyTest() string { return l.status(l.fnStartLatencyTest()) }
func (l *lib) StopLatencyTest() string  { return l.status(l.fnStopLatencyTest()) }

func (l *lib) LatencyTestStatus() (int32, float32) {
	state := int32(0)
	resultMs := float32(NoLatencyResult)
	l.fnLatencyTestStatus(
		uintptr(unsafe.Pointer(&state)),
		uintptr(unsafe.Pointer(&resultMs)),
	)
	return state, resultMs
}

func (l *lib) LatencyTestError() (string, bool) {
	ptr := l.fnLatencyTestError()
	if ptr == 0 {
		return "", false
	}
	defer l.fnFreeString(ptr)
	return goString(ptr), true
}

func (l *lib) SetTempo(bpm float64) string { return l.status(l.fnSetTempo(bpm)) }
func (l *lib) Tempo() float64              { return l.fnTempo() }

func (l *lib) SetMetronomeEnabled(enabled bool) string {
	var v int32
	if enabled {
		v = 1
	}
	return l.status(l.fnSetMetronome(v))
}

func (l *lib) MetronomeEnabled() bool { return l.fnMetronome() != 0 }

func (l *lib) SetTimeSignature(beatsPerBar uint32) string {
	return l.status(l.fnSetTimeSignature(beatsPerBar))
}

func (l *lib) TimeSignature() uint32 { return l.fnTimeSignature() }
