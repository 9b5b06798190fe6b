package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tyrbujac/boojy-audio-sub002/internal/config"
	"github.com/tyrbujac/boojy-audio-sub002/internal/engine"
)

// Status is a point-in-time snapshot of the engine, refreshed by the
// session's background poll loop so callers never block on the native
// boundary.
type Status struct {
	Transport        engine.TransportState
	PlayheadSeconds  float64
	BufferPreset     engine.BufferSizePreset
	ActualBufferSize int
	Latency          engine.LatencyInfo
}

// Session coordinates access to the engine: lifecycle, track and clip
// bookkeeping, and a cached status snapshot for pollers.
type Session struct {
	mu     sync.Mutex
	config *config.Config
	eng    *engine.Engine

	// Caller-side bookkeeping only; the engine owns the actual objects.
	// Handles left behind by DeleteTrack go stale silently.
	tracks map[engine.TrackID][]engine.ClipID

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	status Status

	// State change notification callback (e.g., for UI refresh)
	notify func(what string)
}

// NewSession opens the native engine per the config and starts the status
// poll loop.
func NewSession(cfg *config.Config) (*Session, error) {
	eng, err := engine.Open(cfg.Engine.LibraryPath, engine.Options{
		LatencyPollInterval: cfg.LatencyPollInterval(),
		LatencyTestTimeout:  cfg.LatencyTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	preset := engine.ParsePreset(cfg.Engine.BufferPreset)
	if err := eng.SetBufferSize(preset); err != nil {
		log.Printf("session: failed to apply buffer preset %s: %v", preset, err)
	}

	return newSession(eng, cfg), nil
}

// newSession wraps an already-open engine. Split out so tests can drive the
// session over a scripted engine.
func newSession(eng *engine.Engine, cfg *config.Config) *Session {
	s := &Session{
		config:   cfg,
		eng:      eng,
		tracks:   make(map[engine.TrackID][]engine.ClipID),
		pollDone: make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.pollCancel = cancel
	go s.pollLoop(ctx)

	return s
}

// Close stops the poll loop and releases the engine. It waits for the loop
// to exit first so no boundary call can land on the unloaded library.
func (s *Session) Close() {
	log.Printf("session: closing")
	s.pollCancel()
	<-s.pollDone
	s.eng.Close()
}

// Engine exposes the underlying facade for operations the session does not
// wrap (clip editing, tempo, latency test).
func (s *Session) Engine() *engine.Engine {
	return s.eng
}

// SetNotify sets the callback for state change notifications.
// The callback is invoked from the poll loop when the transport state
// changes.
func (s *Session) SetNotify(callback func(what string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = callback
}

// Play starts or resumes playback.
func (s *Session) Play() error {
	log.Printf("session: play")
	return s.eng.Play()
}

// Pause halts playback keeping the playhead.
func (s *Session) Pause() error {
	log.Printf("session: pause")
	return s.eng.Pause()
}

// Stop halts playback and rewinds to zero.
func (s *Session) Stop() error {
	log.Printf("session: stop")
	return s.eng.Stop()
}

// Seek moves the playhead.
func (s *Session) Seek(seconds float64) error {
	return s.eng.Seek(seconds)
}

// CreateTrack adds a track and records it locally.
func (s *Session) CreateTrack(kind, name string) (engine.TrackID, error) {
	id, err := s.eng.CreateTrack(kind, name)
	if err != nil {
		return id, err
	}
	s.mu.Lock()
	s.tracks[id] = nil
	s.mu.Unlock()
	log.Printf("session: created %s track %d (%s)", kind, id, name)
	return id, nil
}

// DeleteTrack removes a track and drops its local records. Clip handles on
// the track become stale; operating on them afterwards fails normally.
func (s *Session) DeleteTrack(track engine.TrackID) error {
	if err := s.eng.DeleteTrack(track); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.tracks, track)
	s.mu.Unlock()
	log.Printf("session: deleted track %d", track)
	return nil
}

// LoadClip loads an audio file onto a track and records the clip handle.
func (s *Session) LoadClip(path string, track engine.TrackID, startTime float64) (engine.ClipID, error) {
	id, err := s.eng.LoadClip(path, track, startTime)
	if err != nil {
		return id, err
	}
	s.mu.Lock()
	s.tracks[track] = append(s.tracks[track], id)
	s.mu.Unlock()
	log.Printf("session: loaded clip %d from %s onto track %d at %.2fs", id, path, track, startTime)
	return id, nil
}

// RemoveClip deletes a clip and drops its local record.
func (s *Session) RemoveClip(track engine.TrackID, clip engine.ClipID) (bool, error) {
	removed, err := s.eng.RemoveClip(track, clip)
	if err != nil || !removed {
		return removed, err
	}
	s.mu.Lock()
	clips := s.tracks[track]
	for i := range clips {
		if clips[i] == clip {
			s.tracks[track] = append(clips[:i], clips[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return true, nil
}

// Tracks returns the locally recorded track handles.
func (s *Session) Tracks() []engine.TrackID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]engine.TrackID, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	return ids
}

// Clips returns the locally recorded clip handles for a track.
func (s *Session) Clips(track engine.TrackID) []engine.ClipID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engine.ClipID(nil), s.tracks[track]...)
}

// Status returns the cached snapshot from the poll loop.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RunLatencyTest runs a full loopback measurement.
func (s *Session) RunLatencyTest(ctx context.Context) (float64, bool) {
	return s.eng.RunLatencyTest(ctx)
}

// pollLoop refreshes the cached status until the session closes.
func (s *Session) pollLoop(ctx context.Context) {
	defer close(s.pollDone)

	ticker := time.NewTicker(s.config.StatusPollInterval())
	defer ticker.Stop()

	s.refreshStatus()

	for {
		select {
		case <-ctx.Done():
			log.Printf("session: status poll loop exiting")
			return
		case <-ticker.C:
			// A cancelled context can lose the select race against an
			// already-ready tick; never refresh after cancellation.
			if ctx.Err() != nil {
				log.Printf("session: status poll loop exiting")
				return
			}
			s.refreshStatus()
		}
	}
}

// refreshStatus queries the engine and swaps the cached snapshot, notifying
// on transport transitions.
func (s *Session) refreshStatus() {
	st := Status{
		Transport:        s.eng.State(),
		PlayheadSeconds:  s.eng.PlayheadPosition(),
		BufferPreset:     s.eng.BufferPreset(),
		ActualBufferSize: s.eng.ActualBufferSize(),
		Latency:          s.eng.Latency(),
	}

	s.mu.Lock()
	changed := st.Transport != s.status.Transport
	s.status = st
	notify := s.notify
	s.mu.Unlock()

	if changed && notify != nil {
		notify("transport")
	}
}
