package rift

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
)

const (
	// EyePipelineKey is the renderer key of the program that draws the captured scene into an eye target.
	EyePipelineKey = "rift_eye"
	// DistortionPipelineKey is the renderer key of the program that warps an eye target onto the display.
	DistortionPipelineKey = "rift_distortion"
)

// EyeVertexSource positions the scene quad with the eye's projection and modelview.
//
//go:embed assets/eye.vert
var EyeVertexSource string

//go:embed assets/eye.frag
var EyeFragmentSource string

// DistortionVertexSource maps per-channel tan-angle mesh UVs into the eye texture and rotates
// the mesh for portrait displays.
//
//go:embed assets/distortion.vert
var DistortionVertexSource string

//go:embed assets/distortion.frag
var DistortionFragmentSource string

func newEyePipeline() pipeline.Pipeline {
	return pipeline.NewPipeline(EyePipelineKey,
		pipeline.WithVertexShader(shader.NewShader("eye.vert", shader.ShaderTypeVertex, EyeVertexSource)),
		pipeline.WithFragmentShader(shader.NewShader("eye.frag", shader.ShaderTypeFragment, EyeFragmentSource)),
		pipeline.WithDepthTestEnabled(true),
	)
}

// the distortion mesh is opaque and screen aligned, so every fixed function stage stays off
func newDistortionPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline(DistortionPipelineKey,
		pipeline.WithVertexShader(shader.NewShader("distortion.vert", shader.ShaderTypeVertex, DistortionVertexSource)),
		pipeline.WithFragmentShader(shader.NewShader("distortion.frag", shader.ShaderTypeFragment, DistortionFragmentSource)),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithBlendEnabled(false),
		pipeline.WithCullFaceEnabled(false),
	)
}
