//go:build !linux && !darwin

package hmd

import "fmt"

// DefaultOpenHMDLibrary is the library name used on platforms with dlopen support.
const DefaultOpenHMDLibrary = "libopenhmd.so.0"

func newOpenHMDBackend(libraryPath string) HMDBackend {
	return &unavailableHMDBackend{
		nullHMDBackend: *newNullHMDBackend(defaultDisplaySize),
		err:            fmt.Errorf("%w: openhmd is not supported on this platform", ErrDriverUnavailable),
	}
}
