package hmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-vr/common"
)

// maxMeshResolution keeps (n+1)² vertices addressable by uint16 indices.
const maxMeshResolution = 254

// DistortionMesh is a triangulated warp grid for one eye.
//
// Positions are screen NDC xy pairs. UVs holds per-vertex tan-angle coordinates for the red,
// green and blue channels; the distortion shader turns them into texture coordinates with the
// eye's UV scale and offset. A mesh without chromatic correction only fills the green channel.
type DistortionMesh struct {
	Positions []float32
	UVs       [3][]float32
	Indices   []uint16
}

// PerChannel reports whether the red and blue channels carry their own UVs.
func (m DistortionMesh) PerChannel() bool {
	return len(m.UVs[0]) > 0 && len(m.UVs[2]) > 0
}

// ChannelUVs returns the UVs for a channel (0 red, 1 green, 2 blue), falling back to green
// when the mesh has no per-channel data.
func (m DistortionMesh) ChannelUVs(channel int) []float32 {
	if !m.PerChannel() {
		return m.UVs[1]
	}
	return m.UVs[channel]
}

// VertexCount returns the number of vertices in the mesh.
func (m DistortionMesh) VertexCount() int {
	return len(m.Positions) / 2
}

// FallbackMesh returns the static rectangle used when no distortion is applied: two triangles
// covering the eye's half of the display (left x in [-1,0], right x in [0,1]) with
// pass-through UVs that show the whole eye texture.
//
// Parameters:
//   - eye: the eye the mesh is for
//
// Returns:
//   - DistortionMesh: a six-vertex mesh with indices 0..5 and only green UVs
func FallbackMesh(eye common.Eye) DistortionMesh {
	x0, x1 := float32(-1), float32(0)
	if eye == common.EyeRight {
		x0, x1 = 0, 1
	}
	return DistortionMesh{
		Positions: []float32{
			x0, 1,
			x1, 1,
			x0, -1,
			x1, 1,
			x1, -1,
			x0, -1,
		},
		UVs: [3][]float32{1: {
			0, 0,
			1, 0,
			0, 1,
			1, 0,
			1, 1,
			0, 1,
		}},
		Indices: []uint16{0, 1, 2, 3, 4, 5},
	}
}

// DistortionParams describes a radially symmetric lens.
type DistortionParams struct {
	// K are the barrel coefficients: r' = r·(K[0] + K[1]r² + K[2]r⁴ + K[3]r⁶).
	K [4]float32

	// ChromaR and ChromaB scale the green-channel result for the red and blue channels.
	ChromaR, ChromaB float32

	// LensCenterOffset is the horizontal distance of the left lens center from the center of
	// the left eye's viewport, in viewport NDC. The right eye mirrors it.
	LensCenterOffset float32

	// Resolution is the number of grid cells along each axis.
	Resolution int
}

// DefaultDistortionParams returns coefficients close to a first generation consumer headset.
func DefaultDistortionParams() DistortionParams {
	return DistortionParams{
		K:                [4]float32{1.0, 0.22, 0.24, 0},
		ChromaR:          0.996,
		ChromaB:          1.014,
		LensCenterOffset: 0.15,
		Resolution:       32,
	}
}

func (p DistortionParams) scaleAt(rSq float32) float32 {
	return p.K[0] + rSq*(p.K[1]+rSq*(p.K[2]+rSq*p.K[3]))
}

// UVScaleOffset returns the per-eye transform from the generated tan-angle UVs to texture
// coordinates. The unit circle around the lens center maps to the edges of the eye texture.
//
// Returns:
//   - scale: the UV scale
//   - offset: the UV offset
func (p DistortionParams) UVScaleOffset() (scale, offset [2]float32) {
	s := 0.5 / p.scaleAt(1)
	return [2]float32{s, -s}, [2]float32{0.5, 0.5}
}

func (p DistortionParams) validate() error {
	if p.Resolution < 1 || p.Resolution > maxMeshResolution {
		return fmt.Errorf("distortion mesh resolution %d out of range [1, %d]", p.Resolution, maxMeshResolution)
	}
	if p.scaleAt(1) <= 0 {
		return fmt.Errorf("distortion coefficients %v collapse the lens edge", p.K)
	}
	return nil
}

// GenerateDistortionMeshes builds the meshes for both eyes in parallel on a worker pool.
// Each eye is split into row bands that are filled concurrently; the call returns once every
// band is complete.
//
// Parameters:
//   - params: the lens description
//   - workers: the maximum number of concurrent workers, at least 1
//
// Returns:
//   - [2]DistortionMesh: the meshes indexed by common.Eye
//   - error: an error if params are out of range
func GenerateDistortionMeshes(params DistortionParams, workers int) ([2]DistortionMesh, error) {
	var meshes [2]DistortionMesh
	if err := params.validate(); err != nil {
		return meshes, err
	}

	n := params.Resolution
	verts := (n + 1) * (n + 1)
	for _, eye := range common.Eyes {
		meshes[eye] = DistortionMesh{
			Positions: make([]float32, verts*2),
			UVs:       [3][]float32{make([]float32, verts*2), make([]float32, verts*2), make([]float32, verts*2)},
			Indices:   gridIndices(n),
		}
	}

	pool := worker.NewDynamicWorkerPool(max(workers, 1), 2*(n+1), 100*time.Millisecond)
	var wg sync.WaitGroup
	taskID := 0
	for _, eye := range common.Eyes {
		for row := 0; row <= n; row++ {
			wg.Add(1)
			m, e, y := &meshes[eye], eye, row
			pool.SubmitTask(worker.Task{
				ID: taskID,
				Do: func() (any, error) {
					defer wg.Done()
					params.fillRow(m, e, y)
					return nil, nil
				},
			})
			taskID++
		}
	}
	wg.Wait()

	logger.Debug("distortion meshes generated", "resolution", n, "vertices", verts, "workers", workers)
	return meshes, nil
}

// fillRow writes one row of grid vertices. Rows never share vertices, so concurrent calls
// for different rows are safe.
func (p DistortionParams) fillRow(m *DistortionMesh, eye common.Eye, row int) {
	n := p.Resolution
	lensX := p.LensCenterOffset
	if eye == common.EyeRight {
		lensX = -lensX
	}

	gy := 1 - 2*float32(row)/float32(n)
	for col := 0; col <= n; col++ {
		gx := -1 + 2*float32(col)/float32(n)
		i := (row*(n+1) + col) * 2

		sx := (gx - 1) / 2
		if eye == common.EyeRight {
			sx = (gx + 1) / 2
		}
		m.Positions[i] = sx
		m.Positions[i+1] = gy

		dx, dy := gx-lensX, gy
		k := p.scaleAt(dx*dx + dy*dy)
		tx, ty := dx*k, dy*k
		m.UVs[0][i], m.UVs[0][i+1] = tx*p.ChromaR, ty*p.ChromaR
		m.UVs[1][i], m.UVs[1][i+1] = tx, ty
		m.UVs[2][i], m.UVs[2][i+1] = tx*p.ChromaB, ty*p.ChromaB
	}
}

func gridIndices(n int) []uint16 {
	indices := make([]uint16, 0, n*n*6)
	stride := n + 1
	for row := range n {
		for col := range n {
			tl := uint16(row*stride + col)
			tr := tl + 1
			bl := tl + uint16(stride)
			br := bl + 1
			indices = append(indices, tl, tr, bl, tr, br, bl)
		}
	}
	return indices
}
