//go:build !darwin && !linux && !freebsd

package engine

import "fmt"

var errUnsupported = fmt.Errorf("native engine library is not supported on this platform")

// OpenLibrary is a stub for platforms without dlopen support.
func OpenLibrary(path string) (Bindings, error) {
	return nil, errUnsupported
}
