//go:build openvr

package hmd

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/go-gl/mathgl/mgl32"
	vr "github.com/tbogdala/openvr-go"
)

const (
	openVRNear = 0.1
	openVRFar  = 100000.0
)

// openVRBackend reads eye transforms and head pose from the OpenVR runtime. The runtime has
// no query for the panel resolution of the mirror window, so the display size is configured.
type openVRBackend struct {
	displaySize common.Size

	system        *vr.System
	compositor    *vr.Compositor
	eyeTransforms *vr.EyeTransforms
	hmdPose       common.Matrix
	textureSize   common.Size
	info          DeviceInfo
}

var _ HMDBackend = &openVRBackend{}

func newOpenVRBackend(displaySize common.Size) HMDBackend {
	return &openVRBackend{displaySize: displaySize, hmdPose: common.Identity()}
}

func (b *openVRBackend) Open() (bool, error) {
	system, err := vr.Init()
	if ok, err := openVRInitResult(err, system != nil); !ok {
		return false, err
	}
	b.system = system

	driver, errInt := system.GetStringTrackedDeviceProperty(int(vr.TrackedDeviceIndexHmd), vr.PropTrackingSystemNameString)
	if errInt != vr.TrackedPropSuccess {
		return false, fmt.Errorf("%w: reading tracking system name", ErrDeviceOpen)
	}
	serial, errInt := system.GetStringTrackedDeviceProperty(int(vr.TrackedDeviceIndexHmd), vr.PropSerialNumberString)
	if errInt != vr.TrackedPropSuccess {
		return false, fmt.Errorf("%w: reading serial number", ErrDeviceOpen)
	}
	b.info = DeviceInfo{Driver: DriverTypeOpenVR, Vendor: driver, Product: driver, Serial: serial}

	w, h := system.GetRecommendedRenderTargetSize()
	b.textureSize = common.Size{Width: int32(w), Height: int32(h)}
	b.eyeTransforms = system.GetEyeTransforms(openVRNear, openVRFar)

	b.compositor, err = vr.GetCompositor()
	if err != nil {
		return false, fmt.Errorf("%w: compositor: %v", ErrDeviceOpen, err)
	}

	logger.Info("device opened", "driver", driver, "serial", serial, "texture", b.textureSize)
	return true, nil
}

func (b *openVRBackend) DeviceInfo() DeviceInfo {
	return b.info
}

func (b *openVRBackend) DisplaySize() common.Size {
	return b.displaySize
}

func (b *openVRBackend) EyeTextureSize(eye common.Eye) common.Size {
	return b.textureSize
}

func (b *openVRBackend) EyeProjection(eye common.Eye) common.Matrix {
	if eye == common.EyeRight {
		return common.Matrix{D: b.eyeTransforms.ProjectionRight, Type: common.TransformOther}
	}
	return common.Matrix{D: b.eyeTransforms.ProjectionLeft, Type: common.TransformOther}
}

func (b *openVRBackend) EyeModelview(eye common.Eye) common.Matrix {
	position := b.eyeTransforms.PositionLeft
	if eye == common.EyeRight {
		position = b.eyeTransforms.PositionRight
	}
	return common.Multiply(common.Matrix{D: position, Type: common.TransformOther}, b.hmdPose)
}

func (b *openVRBackend) EyeUVScaleOffset(eye common.Eye) (scale, offset [2]float32) {
	return [2]float32{1, 1}, [2]float32{0, 0}
}

func (b *openVRBackend) DistortionMesh(eye common.Eye) (DistortionMesh, bool) {
	return DistortionMesh{}, false
}

// BeginFrame blocks until the runtime hands out the poses for the next frame.
func (b *openVRBackend) BeginFrame(index uint64) {
	if b.compositor == nil {
		return
	}
	b.compositor.WaitGetPoses(false)
	if b.compositor.IsPoseValid(vr.TrackedDeviceIndexHmd) {
		pose := b.compositor.GetRenderPose(vr.TrackedDeviceIndexHmd)
		m := mgl32.Mat4(vr.Mat34ToMat4(&pose.DeviceToAbsoluteTracking))
		q := mgl32.Mat4ToQuat(m).Normalize()
		pos := m.Col(3)
		b.hmdPose = common.PoseToMatrix(
			common.Quaternion{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W},
			common.Point3{X: pos[0], Y: pos[1], Z: pos[2]},
		)
	}
}

func (b *openVRBackend) EndFrame() {}

func (b *openVRBackend) Close() error {
	b.compositor = nil
	b.system = nil
	return nil
}
