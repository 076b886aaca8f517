package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformType tags a Matrix with the kinds of transform composed into it.
// The flags are bitwise composable; Multiply ORs the tags of its operands.
type TransformType uint8

const (
	// TransformIdentity marks a matrix that has no transform applied.
	TransformIdentity TransformType = 0
	// TransformTranslate marks a matrix containing a translation.
	TransformTranslate TransformType = 1 << (iota - 1)
	// TransformScale marks a matrix containing a non-uniform or uniform scale.
	TransformScale
	// TransformRotate marks a matrix containing a rotation.
	TransformRotate
	// TransformOther marks a matrix whose contents are not described by the other flags,
	// such as a projection reported by a tracking driver.
	TransformOther
)

// Matrix is a 4x4 float32 matrix stored column-major, matching the layout
// glUniformMatrix4fv expects with transpose disabled.
// Every constructor in this package populates all 16 entries.
type Matrix struct {
	// D holds the 16 column-major entries. D[12], D[13], D[14] are the translation.
	D mgl32.Mat4

	// Type records which transforms have been composed into D.
	Type TransformType
}

// Quaternion is a rotation expressed as (X, Y, Z, W) with W the scalar part.
// Values produced by tracking drivers are expected to be unit length; nothing in this
// package re-normalizes them.
type Quaternion struct {
	X, Y, Z, W float32
}

// Point3 is a position in 3D space.
type Point3 struct {
	X, Y, Z float32
}

// Negate returns the point mirrored through the origin.
//
// Returns:
//   - Point3: (-X, -Y, -Z)
func (p Point3) Negate() Point3 {
	return Point3{X: -p.X, Y: -p.Y, Z: -p.Z}
}

// Vec4 widens the point to homogeneous coordinates with the given w.
// Use w = 1 for positions and w = 0 for directions.
//
// Parameters:
//   - w: the homogeneous coordinate
//
// Returns:
//   - [4]float32: (X, Y, Z, w)
func (p Point3) Vec4(w float32) [4]float32 {
	return [4]float32{p.X, p.Y, p.Z, w}
}

// Rotate applies QuaternionToMatrix(q) to p. This is the rotation that takes a world
// direction into the frame described by q, which is the rotation the eye pose matrices use.
//
// Parameters:
//   - p: the point to rotate
//
// Returns:
//   - Point3: the rotated point
func (q Quaternion) Rotate(p Point3) Point3 {
	v := QuaternionToMatrix(q).Apply(p.Vec4(0))
	return Point3{X: v[0], Y: v[1], Z: v[2]}
}

// Identity returns the 4x4 identity matrix.
//
// Returns:
//   - Matrix: the identity matrix tagged TransformIdentity
func Identity() Matrix {
	return Matrix{D: mgl32.Ident4(), Type: TransformIdentity}
}

// Translation returns a matrix that translates by (x, y, z).
//
// Parameters:
//   - x, y, z: translation along each axis
//
// Returns:
//   - Matrix: the translation matrix tagged TransformTranslate
func Translation(x, y, z float32) Matrix {
	return Matrix{D: mgl32.Translate3D(x, y, z), Type: TransformTranslate}
}

// Scale returns a matrix that scales by (x, y, z).
//
// Parameters:
//   - x, y, z: scale factor along each axis
//
// Returns:
//   - Matrix: the scale matrix tagged TransformScale
func Scale(x, y, z float32) Matrix {
	return Matrix{D: mgl32.Scale3D(x, y, z), Type: TransformScale}
}

// Transpose returns the transpose of m. Translation does not survive a transpose as a
// translation, so a translated input is re-tagged TransformOther.
//
// Parameters:
//   - m: the matrix to transpose
//
// Returns:
//   - Matrix: the transposed matrix
func Transpose(m Matrix) Matrix {
	t := m.Type
	if t&TransformTranslate != 0 {
		t = (t &^ TransformTranslate) | TransformOther
	}
	return Matrix{D: m.D.Transpose(), Type: t}
}

// Multiply composes two matrices as a·b: b is applied first, then a.
// Eye pose composition depends on this order, so call sites must not swap operands.
//
// Parameters:
//   - a: the transform applied second
//   - b: the transform applied first
//
// Returns:
//   - Matrix: the product a·b tagged with the union of both operands' tags
func Multiply(a, b Matrix) Matrix {
	return Matrix{D: a.D.Mul4(b.D), Type: a.Type | b.Type}
}

// QuaternionToMatrix builds the rotation matrix for a unit quaternion.
//
// The result is the world-to-eye rotation: the transpose of the textbook eye-to-world
// matrix for q. It is numerically equal to composing the quaternion's left- and
// right-multiplication matrices, which is how tracking SDK samples traditionally build it.
//
// Parameters:
//   - q: the unit quaternion
//
// Returns:
//   - Matrix: the rotation matrix tagged TransformRotate
func QuaternionToMatrix(q Quaternion) Matrix {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Matrix{
		D: mgl32.Mat4{
			1 - 2*y*y - 2*z*z, 2*x*y - 2*w*z, 2*x*z + 2*w*y, 0,
			2*x*y + 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z - 2*w*x, 0,
			2*x*z - 2*w*y, 2*y*z + 2*w*x, 1 - 2*x*x - 2*y*y, 0,
			0, 0, 0, 1,
		},
		Type: TransformRotate,
	}
}

// PoseToMatrix converts a tracked pose into a world-to-eye matrix: the position is
// negated and translated first, then the orientation is applied.
//
// Parameters:
//   - orientation: the head orientation reported by the tracking driver
//   - position: the head position reported by the tracking driver
//
// Returns:
//   - Matrix: QuaternionToMatrix(orientation)·Translation(-position)
func PoseToMatrix(orientation Quaternion, position Point3) Matrix {
	p := position.Negate()
	return Multiply(QuaternionToMatrix(orientation), Translation(p.X, p.Y, p.Z))
}

// Apply multiplies the column vector v by m.
//
// Parameters:
//   - v: the homogeneous vector
//
// Returns:
//   - [4]float32: m·v
func (m Matrix) Apply(v [4]float32) [4]float32 {
	r := m.D.Mul4x1(mgl32.Vec4(v))
	return [4]float32(r)
}

// ApproxEqual reports whether every entry of m is within eps of the matching entry of o.
// The transform tags are not compared.
func (m Matrix) ApproxEqual(o Matrix, eps float32) bool {
	for i := range m.D {
		d := m.D[i] - o.D[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
