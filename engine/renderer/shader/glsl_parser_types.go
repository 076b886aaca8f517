package shader

// Qualifier is the storage qualifier of a global GLSL declaration the renderer must bind.
type Qualifier int

const (
	// QualifierAttribute marks a per-vertex input of the vertex stage.
	QualifierAttribute Qualifier = iota

	// QualifierUniform marks a uniform shared by every invocation of a draw call.
	QualifierUniform
)

func (q Qualifier) String() string {
	if q == QualifierUniform {
		return "uniform"
	}
	return "attribute"
}

// Declaration describes one attribute or uniform variable parsed from GLSL source.
type Declaration struct {
	// Qualifier reports whether the variable is an attribute or a uniform.
	Qualifier Qualifier

	// Type is the GLSL type name, e.g. "vec2", "mat4", "sampler2D".
	Type string

	// Name is the variable name used for location lookups.
	Name string

	// Components is the number of float components of the type, or 0 for opaque and
	// non-float types such as samplers and bools.
	Components int

	// Referenced is true when the variable is used anywhere beyond its declaration.
	// Linkers drop unreferenced variables, so only referenced ones are guaranteed a location.
	Referenced bool
}
