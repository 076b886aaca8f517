package hmd

import "github.com/Carmen-Shannon/oxy-vr/common"

// nullHMDBackend stands in for a missing device. Every query returns a fixed default so the
// pipeline can run and be tested without hardware.
type nullHMDBackend struct {
	displaySize common.Size
}

var _ HMDBackend = &nullHMDBackend{}

func newNullHMDBackend(displaySize common.Size) *nullHMDBackend {
	return &nullHMDBackend{displaySize: displaySize}
}

func (b *nullHMDBackend) Open() (bool, error) {
	return false, nil
}

func (b *nullHMDBackend) DeviceInfo() DeviceInfo {
	return DeviceInfo{Driver: DriverTypeNone}
}

func (b *nullHMDBackend) DisplaySize() common.Size {
	return b.displaySize
}

func (b *nullHMDBackend) EyeTextureSize(eye common.Eye) common.Size {
	return b.displaySize
}

func (b *nullHMDBackend) EyeProjection(eye common.Eye) common.Matrix {
	return common.Identity()
}

func (b *nullHMDBackend) EyeModelview(eye common.Eye) common.Matrix {
	return common.Identity()
}

func (b *nullHMDBackend) EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32) {
	return [2]float32{1, 1}, [2]float32{0, 0}
}

func (b *nullHMDBackend) DistortionMesh(eye common.Eye) (DistortionMesh, bool) {
	return FallbackMesh(eye), true
}

func (b *nullHMDBackend) BeginFrame(index uint64) {}

func (b *nullHMDBackend) EndFrame() {}

func (b *nullHMDBackend) Close() error {
	return nil
}

// unavailableHMDBackend is a driver that cannot be used in this build or on this platform.
// Open reports why; everything else behaves like the null backend.
type unavailableHMDBackend struct {
	nullHMDBackend
	err error
}

func (b *unavailableHMDBackend) Open() (bool, error) {
	return false, b.err
}
