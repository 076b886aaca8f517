package hmd

import "github.com/Carmen-Shannon/oxy-vr/common"

// HMDBuilderOption is a functional option applied to an HMD during construction via NewHMD.
type HMDBuilderOption func(*hmd)

// WithLibraryPath sets the shared library the OpenHMD driver loads.
//
// Parameters:
//   - path: the library file name or path
//
// Returns:
//   - HMDBuilderOption: a function that sets the library path
func WithLibraryPath(path string) HMDBuilderOption {
	return func(h *hmd) {
		h.libraryPath = path
	}
}

// WithDisplaySize sets the output resolution used when the driver does not report one.
//
// Parameters:
//   - size: the display size in pixels
//
// Returns:
//   - HMDBuilderOption: a function that sets the display size
func WithDisplaySize(size common.Size) HMDBuilderOption {
	return func(h *hmd) {
		if !size.Empty() {
			h.displaySize = size
		}
	}
}

// WithDistortionParams sets the lens description used when the driver has no mesh of its own.
//
// Parameters:
//   - params: the lens description
//
// Returns:
//   - HMDBuilderOption: a function that sets the distortion parameters
func WithDistortionParams(params DistortionParams) HMDBuilderOption {
	return func(h *hmd) {
		h.params = params
	}
}

// WithMeshWorkers sets how many workers generate distortion meshes.
//
// Parameters:
//   - workers: the maximum number of concurrent workers
//
// Returns:
//   - HMDBuilderOption: a function that sets the worker count
func WithMeshWorkers(workers int) HMDBuilderOption {
	return func(h *hmd) {
		h.workers = workers
	}
}

// WithEyeRenderOrder overrides the order in which eyes are rendered in the first pass, taking
// precedence over an order reported by the driver. An order that is not both eyes exactly once
// is ignored with a warning.
//
// Parameters:
//   - order: both eyes in render order
//
// Returns:
//   - HMDBuilderOption: a function that sets the render order
func WithEyeRenderOrder(order ...common.Eye) HMDBuilderOption {
	return func(h *hmd) {
		if !ValidEyeRenderOrder(order) {
			logger.Warn("ignoring invalid eye render order", "order", order)
			return
		}
		h.renderOrder = append([]common.Eye(nil), order...)
		h.renderOrderSet = true
	}
}

// WithBackend replaces the driver backend selected by the driver type.
//
// Parameters:
//   - backend: the HMDBackend to use
//
// Returns:
//   - HMDBuilderOption: a function that sets the backend
func WithBackend(backend HMDBackend) HMDBuilderOption {
	return func(h *hmd) {
		h.backend = backend
	}
}
