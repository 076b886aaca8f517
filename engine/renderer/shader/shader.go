package shader

import (
	"fmt"
)

// ShaderType identifies the programmable stage a shader is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for per-vertex processing of attribute streams.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// shader is the implementation of the Shader interface.
// It holds the GLSL source and the declarations parsed from it.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	declarations []Declaration
}

// Shader defines the interface for a loaded and parsed GLSL shader stage. It exposes the
// shader's unique key, source code, stage, and the attribute and uniform declarations the
// renderer resolves to locations once the stage is linked into a program.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and diagnostics.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the GLSL shader source code.
	//
	// Returns:
	//   - string: the GLSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader compiles for.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// Declarations returns every attribute and uniform declared at global scope, in source order.
	// Vertex-stage "in" and "attribute" variables are reported as attributes. Fragment-stage
	// inputs are varyings and are not reported.
	//
	// Returns:
	//   - []Declaration: the parsed declarations
	Declarations() []Declaration

	// Attributes returns only the attribute declarations.
	//
	// Returns:
	//   - []Declaration: the attribute declarations in source order
	Attributes() []Declaration

	// Uniforms returns only the uniform declarations.
	//
	// Returns:
	//   - []Declaration: the uniform declarations in source order
	Uniforms() []Declaration
}

var _ Shader = &shader{}

// NewShader creates a new Shader from GLSL source and parses its declarations.
// Panics if the source is empty or cannot be parsed, since shader sources are compiled into
// the binary and a malformed one is a programming error.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and diagnostics
//   - shaderType: the stage the shader compiles for
//   - source: the GLSL source code
//
// Returns:
//   - Shader: a new Shader instance
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have a non-empty source", key))
	}
	decls, err := parseDeclarations(source, shaderType)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to parse %s: %v", key, err))
	}
	return &shader{
		key:          key,
		source:       source,
		shaderType:   shaderType,
		declarations: decls,
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Declarations() []Declaration {
	return s.declarations
}

func (s *shader) Attributes() []Declaration {
	return s.filter(QualifierAttribute)
}

func (s *shader) Uniforms() []Declaration {
	return s.filter(QualifierUniform)
}

func (s *shader) filter(q Qualifier) []Declaration {
	var out []Declaration
	for _, d := range s.declarations {
		if d.Qualifier == q {
			out = append(out, d)
		}
	}
	return out
}
