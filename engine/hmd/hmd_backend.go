package hmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-vr/common"
)

// DriverType identifies the tracking driver an HMD is opened with.
type DriverType int

const (
	// DriverTypeNone uses no device; every query returns a fixed default.
	DriverTypeNone DriverType = iota
	// DriverTypeOpenHMD loads libopenhmd at runtime.
	DriverTypeOpenHMD
	// DriverTypeOpenVR uses the OpenVR runtime. Only available in builds tagged openvr.
	DriverTypeOpenVR
)

func (d DriverType) String() string {
	switch d {
	case DriverTypeNone:
		return "none"
	case DriverTypeOpenHMD:
		return "openhmd"
	case DriverTypeOpenVR:
		return "openvr"
	default:
		return fmt.Sprintf("DriverType(%d)", int(d))
	}
}

// ParseDriverType converts a configured driver name into a DriverType.
//
// Parameters:
//   - s: "none", "openhmd" or "openvr", case-insensitive; empty means none
//
// Returns:
//   - DriverType: the driver type
//   - error: an error if the name is unknown
func ParseDriverType(s string) (DriverType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DriverTypeNone, nil
	case "openhmd":
		return DriverTypeOpenHMD, nil
	case "openvr":
		return DriverTypeOpenVR, nil
	default:
		return DriverTypeNone, fmt.Errorf("unknown hmd driver %q", s)
	}
}

// ErrDriverUnavailable is returned by a backend's Open when the driver library or runtime
// cannot be loaded at all. It is distinct from an absent device.
var ErrDriverUnavailable = errors.New("hmd driver unavailable")

// ErrDeviceOpen is returned when a device was found but could not be opened.
var ErrDeviceOpen = errors.New("hmd device open failed")

// EyeRenderOrderer is implemented by backends whose driver recommends an eye render order.
// A nil order means the driver has no preference.
type EyeRenderOrderer interface {
	EyeRenderOrder() []common.Eye
}

// DeviceInfo describes the opened device.
type DeviceInfo struct {
	Driver  DriverType
	Vendor  string
	Product string
	Path    string
	Serial  string
}

// HMDBackend is the driver-specific half of an HMD. The HMD wrapper applies defaults, mesh
// generation and the no-device fallback on top of it.
type HMDBackend interface {
	// Open probes for a device and opens the first one found.
	//
	// Returns:
	//   - bool: true if a device was opened, false if the driver works but no device is present
	//   - error: ErrDriverUnavailable or ErrDeviceOpen wrapped with the driver message
	Open() (bool, error)

	// DeviceInfo describes the opened device.
	DeviceInfo() DeviceInfo

	// DisplaySize returns the panel resolution.
	DisplaySize() common.Size

	// EyeTextureSize returns the recommended render target size for an eye.
	EyeTextureSize(eye common.Eye) common.Size

	// EyeProjection returns the projection matrix for an eye, column-major.
	EyeProjection(eye common.Eye) common.Matrix

	// EyeModelview returns the world-to-eye matrix for an eye from the latest tracking data.
	EyeModelview(eye common.Eye) common.Matrix

	// EyeUVScaleOffset returns the transform from mesh UVs to eye texture coordinates.
	EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32)

	// DistortionMesh returns the driver's own mesh for an eye.
	//
	// Returns:
	//   - DistortionMesh: the mesh
	//   - bool: false if the driver has no mesh API and one must be generated
	DistortionMesh(eye common.Eye) (DistortionMesh, bool)

	// BeginFrame samples tracking for the frame about to be rendered.
	BeginFrame(index uint64)

	// EndFrame tells the driver the frame has been submitted.
	EndFrame()

	// Close releases the device and the driver.
	Close() error
}
