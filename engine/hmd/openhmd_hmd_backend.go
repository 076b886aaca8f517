//go:build linux || darwin

package hmd

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/ebitengine/purego"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultOpenHMDLibrary is the shared object loaded when no library path is configured.
const DefaultOpenHMDLibrary = "libopenhmd.so.0"

// Values from openhmd.h.
const (
	ohmdVendor  int32 = 0
	ohmdProduct int32 = 1
	ohmdPath    int32 = 2

	ohmdLeftEyeGLModelviewMatrix   int32 = 2
	ohmdRightEyeGLModelviewMatrix  int32 = 3
	ohmdLeftEyeGLProjectionMatrix  int32 = 4
	ohmdRightEyeGLProjectionMatrix int32 = 5
	ohmdScreenHorizontalSize       int32 = 7
	ohmdScreenVerticalSize         int32 = 8
	ohmdLensHorizontalSeparation   int32 = 9
	ohmdLensVerticalPosition       int32 = 10
	ohmdLeftEyeFOV                 int32 = 11
	ohmdLeftEyeAspectRatio         int32 = 12

	ohmdScreenHorizontalResolution int32 = 0
	ohmdScreenVerticalResolution   int32 = 1
)

// openHMDBackend talks to libopenhmd through purego, so the binary has no link-time
// dependency on it.
type openHMDBackend struct {
	libraryPath string

	lib uintptr
	ctx uintptr
	dev uintptr

	info        DeviceInfo
	displaySize common.Size

	ctxCreate      func() uintptr
	ctxDestroy     func(ctx uintptr)
	ctxGetError    func(ctx uintptr) string
	ctxUpdate      func(ctx uintptr)
	ctxProbe       func(ctx uintptr) int32
	listGets       func(ctx uintptr, index int32, key int32) string
	listOpenDevice func(ctx uintptr, index int32) uintptr
	closeDevice    func(dev uintptr) int32
	deviceGetf     func(dev uintptr, key int32, out *float32) int32
	deviceGeti     func(dev uintptr, key int32, out *int32) int32
}

var _ HMDBackend = &openHMDBackend{}

func newOpenHMDBackend(libraryPath string) HMDBackend {
	return &openHMDBackend{libraryPath: common.Coalesce(libraryPath, DefaultOpenHMDLibrary)}
}

func (b *openHMDBackend) load() (err error) {
	lib, err := purego.Dlopen(b.libraryPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDriverUnavailable, b.libraryPath, err)
	}

	// RegisterLibFunc panics on a missing symbol, which means an incompatible library.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrDriverUnavailable, b.libraryPath, r)
		}
	}()
	purego.RegisterLibFunc(&b.ctxCreate, lib, "ohmd_ctx_create")
	purego.RegisterLibFunc(&b.ctxDestroy, lib, "ohmd_ctx_destroy")
	purego.RegisterLibFunc(&b.ctxGetError, lib, "ohmd_ctx_get_error")
	purego.RegisterLibFunc(&b.ctxUpdate, lib, "ohmd_ctx_update")
	purego.RegisterLibFunc(&b.ctxProbe, lib, "ohmd_ctx_probe")
	purego.RegisterLibFunc(&b.listGets, lib, "ohmd_list_gets")
	purego.RegisterLibFunc(&b.listOpenDevice, lib, "ohmd_list_open_device")
	purego.RegisterLibFunc(&b.closeDevice, lib, "ohmd_close_device")
	purego.RegisterLibFunc(&b.deviceGetf, lib, "ohmd_device_getf")
	purego.RegisterLibFunc(&b.deviceGeti, lib, "ohmd_device_geti")
	b.lib = lib
	return nil
}

func (b *openHMDBackend) Open() (bool, error) {
	if b.lib == 0 {
		if err := b.load(); err != nil {
			return false, err
		}
	}
	if b.ctx == 0 {
		b.ctx = b.ctxCreate()
	}

	n := b.ctxProbe(b.ctx)
	if n < 0 {
		logger.Error("failed to probe devices", "err", b.ctxGetError(b.ctx))
		return false, nil
	}
	logger.Info("probed devices", "count", n)
	for i := range n {
		logger.Info("device",
			"index", i,
			"vendor", b.listGets(b.ctx, i, ohmdVendor),
			"product", b.listGets(b.ctx, i, ohmdProduct),
			"path", b.listGets(b.ctx, i, ohmdPath),
		)
	}
	if n == 0 {
		return false, nil
	}

	b.dev = b.listOpenDevice(b.ctx, 0)
	if b.dev == 0 {
		return false, fmt.Errorf("%w: %s", ErrDeviceOpen, b.ctxGetError(b.ctx))
	}

	b.info = DeviceInfo{
		Driver:  DriverTypeOpenHMD,
		Vendor:  b.listGets(b.ctx, 0, ohmdVendor),
		Product: b.listGets(b.ctx, 0, ohmdProduct),
		Path:    b.listGets(b.ctx, 0, ohmdPath),
	}
	b.displaySize = common.Size{
		Width:  b.geti(ohmdScreenHorizontalResolution),
		Height: b.geti(ohmdScreenVerticalResolution),
	}
	logger.Info("device opened",
		"product", b.info.Product,
		"resolution", b.displaySize,
		"hsize", b.getf(ohmdScreenHorizontalSize),
		"vsize", b.getf(ohmdScreenVerticalSize),
		"lens_separation", b.getf(ohmdLensHorizontalSeparation),
		"lens_vcenter", b.getf(ohmdLensVerticalPosition),
		"fov", b.getf(ohmdLeftEyeFOV),
		"aspect", b.getf(ohmdLeftEyeAspectRatio),
	)
	return true, nil
}

func (b *openHMDBackend) geti(key int32) int32 {
	var v int32
	b.deviceGeti(b.dev, key, &v)
	return v
}

func (b *openHMDBackend) getf(key int32) float32 {
	var v float32
	b.deviceGetf(b.dev, key, &v)
	return v
}

// matrix reads one of the driver's column-major GL matrices.
func (b *openHMDBackend) matrix(key int32) common.Matrix {
	var m mgl32.Mat4
	b.deviceGetf(b.dev, key, &m[0])
	return common.Matrix{D: m, Type: common.TransformOther}
}

func (b *openHMDBackend) DeviceInfo() DeviceInfo {
	return b.info
}

func (b *openHMDBackend) DisplaySize() common.Size {
	return b.displaySize
}

// EyeTextureSize returns the full panel resolution for each eye.
func (b *openHMDBackend) EyeTextureSize(eye common.Eye) common.Size {
	return b.displaySize
}

func (b *openHMDBackend) EyeProjection(eye common.Eye) common.Matrix {
	if eye == common.EyeRight {
		return b.matrix(ohmdRightEyeGLProjectionMatrix)
	}
	return b.matrix(ohmdLeftEyeGLProjectionMatrix)
}

func (b *openHMDBackend) EyeModelview(eye common.Eye) common.Matrix {
	if eye == common.EyeRight {
		return b.matrix(ohmdRightEyeGLModelviewMatrix)
	}
	return b.matrix(ohmdLeftEyeGLModelviewMatrix)
}

func (b *openHMDBackend) EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32) {
	return [2]float32{1, 1}, [2]float32{0, 0}
}

func (b *openHMDBackend) DistortionMesh(eye common.Eye) (DistortionMesh, bool) {
	return DistortionMesh{}, false
}

func (b *openHMDBackend) BeginFrame(index uint64) {}

func (b *openHMDBackend) EndFrame() {
	if b.ctx != 0 {
		b.ctxUpdate(b.ctx)
	}
}

func (b *openHMDBackend) Close() error {
	if b.dev != 0 {
		if rc := b.closeDevice(b.dev); rc < 0 {
			logger.Warn("failed to close device", "code", rc)
		}
		b.dev = 0
	}
	if b.ctx != 0 {
		b.ctxDestroy(b.ctx)
		b.ctx = 0
	}
	return nil
}
