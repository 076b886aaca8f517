package hmd

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("hmd")

// defaultDisplaySize is used when neither the device nor the builder supply one.
var defaultDisplaySize = common.Size{Width: 1920, Height: 1080}

// hmd is the implementation of the HMD interface.
type hmd struct {
	driverType  DriverType
	backend     HMDBackend
	connected   bool
	libraryPath string
	displaySize common.Size
	renderOrder []common.Eye
	params      DistortionParams
	workers     int

	meshes         [2]DistortionMesh
	generated      bool
	closed         bool
	renderOrderSet bool // set by WithEyeRenderOrder
}

// HMD is the narrow view of a head-mounted display the distortion pipeline consumes.
//
// An HMD always answers every query. When no device is present it reports fixed defaults:
// identity projection and modelview, the display size as the eye texture size, unit UV scale
// and zero offset, and the static fallback mesh.
type HMD interface {
	// Connected reports whether a device was opened.
	//
	// Returns:
	//   - bool: true if a real device backs this HMD
	Connected() bool

	// DeviceInfo describes the opened device, or only the driver type when none is connected.
	//
	// Returns:
	//   - DeviceInfo: the device description
	DeviceInfo() DeviceInfo

	// EyeProjection returns the projection matrix for an eye.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - common.Matrix: the column-major projection
	EyeProjection(eye common.Eye) common.Matrix

	// EyeModelview returns the world-to-eye matrix for an eye from the tracking data sampled
	// by the last BeginFrame.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - common.Matrix: the column-major modelview
	EyeModelview(eye common.Eye) common.Matrix

	// EyeTextureSize returns the size of the render target for an eye.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - common.Size: the texture size in pixels
	EyeTextureSize(eye common.Eye) common.Size

	// EyeRenderOrder returns the order in which eyes should be rendered.
	//
	// Returns:
	//   - []common.Eye: both eyes, in render order
	EyeRenderOrder() []common.Eye

	// EyeUVScaleOffset returns the transform from the eye's distortion mesh UVs to texture
	// coordinates.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - scale: the UV scale
	//   - offset: the UV offset
	EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32)

	// DistortionMesh returns the warp mesh for an eye.
	//
	// Parameters:
	//   - eye: the eye to query
	//
	// Returns:
	//   - DistortionMesh: the mesh, computed once when the HMD was opened
	DistortionMesh(eye common.Eye) DistortionMesh

	// DisplaySize returns the resolution of the output the distortion pass draws to.
	//
	// Returns:
	//   - common.Size: the display size in pixels
	DisplaySize() common.Size

	// BeginFrame samples tracking for a frame. The index increases by one every frame.
	//
	// Parameters:
	//   - index: the frame index
	BeginFrame(index uint64)

	// EndFrame reports that the frame was submitted and lets the driver update its state.
	EndFrame()

	// Close releases the device. Further calls to Close are no-ops.
	//
	// Returns:
	//   - error: an error from the driver while releasing the device
	Close() error
}

var _ HMD = &hmd{}

// NewHMD opens the configured driver and prepares distortion meshes for both eyes.
//
// A driver that cannot be loaded or that finds no device is not an error: the HMD falls back
// to the no-device defaults and Connected reports false. A device that is found but cannot be
// opened is returned as ErrDeviceOpen.
//
// Parameters:
//   - driverType: the driver to open
//   - opts: a variadic list of HMDBuilderOption functions
//
// Returns:
//   - HMD: the opened HMD
//   - error: ErrDeviceOpen, or an error if mesh generation fails
func NewHMD(driverType DriverType, opts ...HMDBuilderOption) (HMD, error) {
	h := &hmd{
		driverType:  driverType,
		displaySize: defaultDisplaySize,
		renderOrder: []common.Eye{common.EyeLeft, common.EyeRight},
		params:      DefaultDistortionParams(),
		workers:     2,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.backend == nil {
		switch driverType {
		case DriverTypeOpenHMD:
			h.backend = newOpenHMDBackend(h.libraryPath)
		case DriverTypeOpenVR:
			h.backend = newOpenVRBackend(h.displaySize)
		default:
			h.backend = newNullHMDBackend(h.displaySize)
		}
	}

	connected, err := h.backend.Open()
	switch {
	case errors.Is(err, ErrDriverUnavailable):
		logger.Warn("driver unavailable, running without a device", "driver", driverType, "err", err)
	case err != nil:
		return nil, fmt.Errorf("opening %s device: %w", driverType, err)
	case !connected && driverType != DriverTypeNone:
		logger.Warn("no device found, running without a device", "driver", driverType)
	}
	h.connected = connected
	if !connected {
		if err := h.backend.Close(); err != nil {
			logger.Warn("failed to release driver", "driver", driverType, "err", err)
		}
		h.backend = newNullHMDBackend(h.displaySize)
	} else {
		if size := h.backend.DisplaySize(); !size.Empty() {
			h.displaySize = size
		}
		h.applyDriverRenderOrder()
	}

	if err := h.prepareMeshes(); err != nil {
		_ = h.backend.Close()
		return nil, err
	}
	return h, nil
}

// applyDriverRenderOrder takes the eye render order from a backend that reports one, unless
// the caller chose an order explicitly.
func (h *hmd) applyDriverRenderOrder() {
	orderer, ok := h.backend.(EyeRenderOrderer)
	if !ok || h.renderOrderSet {
		return
	}
	order := orderer.EyeRenderOrder()
	switch {
	case order == nil:
	case ValidEyeRenderOrder(order):
		h.renderOrder = append([]common.Eye(nil), order...)
	default:
		logger.Warn("driver reported an invalid eye render order, using default", "driver", h.driverType, "order", order)
	}
}

// ValidEyeRenderOrder reports whether order names each eye exactly once.
//
// Parameters:
//   - order: the eye render order to check
//
// Returns:
//   - bool: true if order is a permutation of common.Eyes
func ValidEyeRenderOrder(order []common.Eye) bool {
	if len(order) != len(common.Eyes) {
		return false
	}
	var seen [len(common.Eyes)]bool
	for _, eye := range order {
		if eye < 0 || int(eye) >= len(seen) || seen[eye] {
			return false
		}
		seen[eye] = true
	}
	return true
}

func (h *hmd) prepareMeshes() error {
	missing := false
	for _, eye := range common.Eyes {
		mesh, ok := h.backend.DistortionMesh(eye)
		if !ok {
			missing = true
			break
		}
		h.meshes[eye] = mesh
	}
	if !missing {
		return nil
	}

	meshes, err := GenerateDistortionMeshes(h.params, h.workers)
	if err != nil {
		return fmt.Errorf("generating distortion meshes: %w", err)
	}
	h.meshes = meshes
	h.generated = true
	return nil
}

func (h *hmd) Connected() bool {
	return h.connected
}

func (h *hmd) DeviceInfo() DeviceInfo {
	if !h.connected {
		return DeviceInfo{Driver: h.driverType}
	}
	return h.backend.DeviceInfo()
}

func (h *hmd) EyeProjection(eye common.Eye) common.Matrix {
	return h.backend.EyeProjection(eye)
}

func (h *hmd) EyeModelview(eye common.Eye) common.Matrix {
	return h.backend.EyeModelview(eye)
}

func (h *hmd) EyeTextureSize(eye common.Eye) common.Size {
	return h.backend.EyeTextureSize(eye)
}

func (h *hmd) EyeRenderOrder() []common.Eye {
	return h.renderOrder
}

// EyeUVScaleOffset returns the generator's transform when the meshes were generated here,
// since the backend's values only describe its own meshes.
func (h *hmd) EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32) {
	if h.generated {
		return h.params.UVScaleOffset()
	}
	return h.backend.EyeUVScaleOffset(eye)
}

func (h *hmd) DistortionMesh(eye common.Eye) DistortionMesh {
	return h.meshes[eye]
}

func (h *hmd) DisplaySize() common.Size {
	return h.displaySize
}

func (h *hmd) BeginFrame(index uint64) {
	h.backend.BeginFrame(index)
}

func (h *hmd) EndFrame() {
	h.backend.EndFrame()
}

func (h *hmd) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.backend.Close()
}
