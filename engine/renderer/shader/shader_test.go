package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexSource = `#version 330 core

// per-eye uniforms
uniform vec2 EyeToSourceUVScale;
uniform vec2 EyeToSourceUVOffset;
uniform bool RightEye; /* reserved for per-eye effects */
uniform float angle;

layout(location = 0) in vec2 Position;
in highp vec2 TexCoord0, TexCoordR;

out vec2 oTexCoord0;

vec2 scaleUV(in vec2 v) {
    vec2 result = v * EyeToSourceUVScale + EyeToSourceUVOffset;
    return result;
}

void main() {
    oTexCoord0 = scaleUV(TexCoord0) + scaleUV(TexCoordR);
    gl_Position = vec4(Position.x * cos(angle), Position.y, 0.5, 1.0);
}
`

const testFragmentSource = `#version 330 core
in vec2 oTexCoord0;
uniform sampler2D Texture0;
out vec4 FragColor;
void main() {
    FragColor = texture(Texture0, oTexCoord0);
}
`

func TestNewShaderParsesVertexDeclarations(t *testing.T) {
	s := NewShader("test.vert", ShaderTypeVertex, testVertexSource)

	assert.Equal(t, "test.vert", s.Key())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())
	assert.Equal(t, testVertexSource, s.Source())

	uniforms := s.Uniforms()
	require.Len(t, uniforms, 4)
	assert.Equal(t, Declaration{Qualifier: QualifierUniform, Type: "vec2", Name: "EyeToSourceUVScale", Components: 2, Referenced: true}, uniforms[0])
	assert.Equal(t, "EyeToSourceUVOffset", uniforms[1].Name)
	assert.Equal(t, Declaration{Qualifier: QualifierUniform, Type: "bool", Name: "RightEye"}, uniforms[2])
	assert.Equal(t, Declaration{Qualifier: QualifierUniform, Type: "float", Name: "angle", Components: 1, Referenced: true}, uniforms[3])

	attrs := s.Attributes()
	require.Len(t, attrs, 3)
	assert.Equal(t, Declaration{Qualifier: QualifierAttribute, Type: "vec2", Name: "Position", Components: 2, Referenced: true}, attrs[0])
	assert.Equal(t, "TexCoord0", attrs[1].Name)
	assert.Equal(t, "TexCoordR", attrs[2].Name)
	assert.True(t, attrs[2].Referenced)

	assert.Len(t, s.Declarations(), 7)
}

func TestNewShaderSkipsFragmentInputs(t *testing.T) {
	s := NewShader("test.frag", ShaderTypeFragment, testFragmentSource)

	assert.Empty(t, s.Attributes())
	require.Len(t, s.Uniforms(), 1)
	assert.Equal(t, Declaration{Qualifier: QualifierUniform, Type: "sampler2D", Name: "Texture0", Referenced: true}, s.Uniforms()[0])
}

func TestLegacyAttributeSyntax(t *testing.T) {
	src := "attribute vec3 Position;\nuniform mat4 ModelView;\nvoid main() { gl_Position = ModelView * vec4(Position, 1.0); }\n"
	decls := NewShader("legacy", ShaderTypeVertex, src).Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, QualifierAttribute, decls[0].Qualifier)
	assert.Equal(t, 3, decls[0].Components)
	assert.Equal(t, 16, decls[1].Components)
}

func TestNewShaderPanics(t *testing.T) {
	assert.Panics(t, func() { NewShader("empty", ShaderTypeVertex, "") })
	assert.Panics(t, func() { NewShader("braces", ShaderTypeVertex, "void main() {") })
	assert.Panics(t, func() { NewShader("bad", ShaderTypeVertex, "uniform vec2 1abc;") })
}
