//go:build darwin || linux || freebsd

package engine

import (
	"testing"
	"unsafe"
)

func TestGoString(t *testing.T) {
	buf := append([]byte("Error: Audio engine not initialized"), 0)
	if got, want := goString(uintptr(unsafe.Pointer(&buf[0]))), "Error: Audio engine not initialized"; got != want {
		t.Errorf("goString() = %q, want %q", got, want)
	}

	empty := []byte{0}
	if got := goString(uintptr(unsafe.Pointer(&empty[0]))); got != "" {
		t.Errorf("goString() on empty string = %q, want empty", got)
	}

	if got := goString(0); got != "" {
		t.Errorf("goString(0) = %q, want empty", got)
	}
}

func TestGoStringUnterminated(t *testing.T) {
	// No terminator anywhere in reach: reads as null, not as a truncated
	// megabyte of garbage
	buf := make([]byte, 2<<20)
	for i := range buf {
		buf[i] = 'x'
	}
	if got := goString(uintptr(unsafe.Pointer(&buf[0]))); got != "" {
		t.Errorf("goString() on unterminated buffer returned %d bytes, want empty", len(got))
	}
}

func TestCstrTerminates(t *testing.T) {
	b := cstr("take1.wav")
	if b[len(b)-1] != 0 {
		t.Error("cstr() result is not NUL-terminated")
	}
	if got, want := string(b[:len(b)-1]), "take1.wav"; got != want {
		t.Errorf("cstr() payload = %q, want %q", got, want)
	}

	if b := cstr(""); len(b) != 1 || b[0] != 0 {
		t.Errorf("cstr(\"\") = %v, want single NUL", b)
	}
}
