package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tyrbujac/boojy-audio-sub002/internal/config"
	"github.com/tyrbujac/boojy-audio-sub002/internal/session"
)

var (
	configPath  = flag.String("config", getDefaultConfigPath(), "Path to configuration file")
	libPath     = flag.String("lib", "", "Path to the engine shared library (overrides config)")
	playFile    = flag.String("play", "", "Load an audio file and play it")
	seekTo      = flag.Float64("seek", 0, "Seek to position in seconds before playing")
	bufferName  = flag.String("buffer", "", "Buffer size preset: lowest, low, balanced, safe, high-stability")
	latencyTest = flag.Bool("latency-test", false, "Run a loopback latency test and exit")
	showInfo    = flag.Bool("info", false, "Print engine status and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Override library path if specified
	if *libPath != "" {
		cfg.Engine.LibraryPath = *libPath
	}

	// Override buffer preset if specified
	if *bufferName != "" {
		cfg.Engine.BufferPreset = *bufferName
	}

	if !*latencyTest && !*showInfo && *playFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Play a local file\n")
		fmt.Fprintf(os.Stderr, "  %s --play /path/to/music.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n  # Measure roundtrip latency (loopback cable required)\n")
		fmt.Fprintf(os.Stderr, "  %s --latency-test\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n  # Show engine status\n")
		fmt.Fprintf(os.Stderr, "  %s --info --buffer safe\n", os.Args[0])
		os.Exit(1)
	}

	// Failures propagate back out of run so the deferred session close
	// always executes before exiting
	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// run opens the session and dispatches to the selected mode
func run(cfg *config.Config) error {
	s, err := session.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine session: %w", err)
	}
	defer s.Close()

	switch {
	case *latencyTest:
		return runLatencyTest(s)
	case *showInfo:
		printInfo(s)
		return nil
	default:
		return runPlay(s, *playFile, *seekTo)
	}
}

// runLatencyTest runs a loopback measurement, cancellable via Ctrl-C
func runLatencyTest(s *session.Session) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("Running latency test (connect output to input with a loopback cable)...")
	resultMs, ok := s.RunLatencyTest(ctx)
	if !ok {
		if msg, found := s.Engine().LatencyTestError(); found {
			return fmt.Errorf("latency test failed: %s", msg)
		}
		return fmt.Errorf("latency test did not produce a result")
	}

	fmt.Printf("Measured roundtrip latency: %.2f ms\n", resultMs)
	return nil
}

// printInfo prints the current engine status
func printInfo(s *session.Session) {
	// Give the poll loop one refresh cycle
	time.Sleep(50 * time.Millisecond)
	st := s.Status()
	eng := s.Engine()

	fmt.Printf("Transport:       %s\n", st.Transport)
	fmt.Printf("Playhead:        %.2f s\n", st.PlayheadSeconds)
	fmt.Printf("Buffer preset:   %s (%d samples nominal)\n", st.BufferPreset, st.BufferPreset.Samples())
	fmt.Printf("Actual buffer:   %d samples\n", st.ActualBufferSize)
	fmt.Printf("Input latency:   %.2f ms\n", st.Latency.InputLatencyMs)
	fmt.Printf("Output latency:  %.2f ms\n", st.Latency.OutputLatencyMs)
	fmt.Printf("Roundtrip:       %.2f ms\n", st.Latency.RoundtripMs)
	fmt.Printf("Tempo:           %.1f BPM\n", eng.Tempo())
	fmt.Printf("Time signature:  %d/4\n", eng.TimeSignature())
	fmt.Printf("Metronome:       %v\n", eng.MetronomeEnabled())
}

// runPlay loads a file onto a fresh track and plays until interrupted
func runPlay(s *session.Session, path string, seekTo float64) error {
	track, err := s.CreateTrack("audio", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}

	clip, err := s.LoadClip(path, track, 0)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	log.Printf("Loaded clip %d (%.2f s)", clip, s.Engine().ClipDuration(clip))

	if seekTo > 0 {
		if err := s.Seek(seekTo); err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
	}

	if err := s.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Printf("\nShutting down...")

	if err := s.Stop(); err != nil {
		log.Printf("Error stopping playback: %v", err)
	}
	return nil
}

func getDefaultConfigPath() string {
	// Check common locations
	locations := []string{
		"./enginectl.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "enginectl", "config.yaml"),
		"/etc/enginectl/config.yaml",
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	// Default to first location if none exist
	return locations[0]
}
