//go:build !openvr

package hmd

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
)

func newOpenVRBackend(displaySize common.Size) HMDBackend {
	return &unavailableHMDBackend{
		nullHMDBackend: *newNullHMDBackend(displaySize),
		err:            fmt.Errorf("%w: openvr support is not compiled in (build with -tags openvr)", ErrDriverUnavailable),
	}
}
