package hmd

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMeshCoversEyeHalf(t *testing.T) {
	for _, tc := range []struct {
		eye        common.Eye
		minX, maxX float32
	}{
		{common.EyeLeft, -1, 0},
		{common.EyeRight, 0, 1},
	} {
		t.Run(tc.eye.String(), func(t *testing.T) {
			m := FallbackMesh(tc.eye)

			require.Equal(t, 6, m.VertexCount())
			assert.Equal(t, []uint16{0, 1, 2, 3, 4, 5}, m.Indices)
			assert.False(t, m.PerChannel())
			for i := 0; i < len(m.Positions); i += 2 {
				assert.GreaterOrEqual(t, m.Positions[i], tc.minX)
				assert.LessOrEqual(t, m.Positions[i], tc.maxX)
			}
			for _, c := range []int{0, 1, 2} {
				assert.Equal(t, m.UVs[1], m.ChannelUVs(c))
			}
		})
	}
}

func TestGenerateDistortionMeshesShape(t *testing.T) {
	params := DefaultDistortionParams()
	params.Resolution = 8

	meshes, err := GenerateDistortionMeshes(params, 4)
	require.NoError(t, err)

	for _, eye := range common.Eyes {
		m := meshes[eye]
		assert.Equal(t, 81, m.VertexCount())
		assert.Len(t, m.Indices, 8*8*6)
		assert.True(t, m.PerChannel())
		for _, idx := range m.Indices {
			assert.Less(t, int(idx), m.VertexCount())
		}
		for c := range 3 {
			assert.Len(t, m.UVs[c], len(m.Positions))
		}
	}
}

func TestGenerateDistortionMeshesIsDeterministic(t *testing.T) {
	params := DefaultDistortionParams()
	params.Resolution = 16

	a, err := GenerateDistortionMeshes(params, 1)
	require.NoError(t, err)
	b, err := GenerateDistortionMeshes(params, 8)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerateDistortionMeshesEyesMirror(t *testing.T) {
	params := DefaultDistortionParams()
	params.Resolution = 10
	n := params.Resolution

	meshes, err := GenerateDistortionMeshes(params, 2)
	require.NoError(t, err)
	left, right := meshes[common.EyeLeft], meshes[common.EyeRight]

	for row := 0; row <= n; row++ {
		for col := 0; col <= n; col++ {
			l := (row*(n+1) + col) * 2
			r := (row*(n+1) + (n - col)) * 2
			assert.InDelta(t, -left.Positions[l], right.Positions[r], 1e-5)
			assert.InDelta(t, left.Positions[l+1], right.Positions[r+1], 1e-5)
			for c := range 3 {
				assert.InDelta(t, -left.UVs[c][l], right.UVs[c][r], 1e-5)
				assert.InDelta(t, left.UVs[c][l+1], right.UVs[c][r+1], 1e-5)
			}
		}
	}
}

func TestGenerateDistortionMeshesChromaticScale(t *testing.T) {
	params := DefaultDistortionParams()
	params.Resolution = 4

	meshes, err := GenerateDistortionMeshes(params, 2)
	require.NoError(t, err)

	m := meshes[common.EyeLeft]
	for i := range m.UVs[1] {
		assert.InDelta(t, m.UVs[1][i]*params.ChromaR, m.UVs[0][i], 1e-6)
		assert.InDelta(t, m.UVs[1][i]*params.ChromaB, m.UVs[2][i], 1e-6)
	}
}

func TestGenerateDistortionMeshesLensCenter(t *testing.T) {
	params := DistortionParams{K: [4]float32{1, 0.5, 0, 0}, ChromaR: 1, ChromaB: 1, Resolution: 2}

	meshes, err := GenerateDistortionMeshes(params, 1)
	require.NoError(t, err)

	// With no lens offset the middle vertex of the 3x3 grid sits on the lens axis.
	m := meshes[common.EyeLeft]
	assert.Equal(t, []float32{-0.5, 0}, m.Positions[8:10])
	assert.Equal(t, []float32{0, 0}, m.UVs[1][8:10])

	// The right edge midpoint is one unit from the axis: scale k0 + k1 = 1.5.
	assert.InDelta(t, 1.5, m.UVs[1][10], 1e-6)
}

func TestGenerateDistortionMeshesRejectsBadParams(t *testing.T) {
	params := DefaultDistortionParams()

	params.Resolution = 0
	_, err := GenerateDistortionMeshes(params, 1)
	assert.Error(t, err)

	params.Resolution = maxMeshResolution + 1
	_, err = GenerateDistortionMeshes(params, 1)
	assert.Error(t, err)

	params = DefaultDistortionParams()
	params.K = [4]float32{}
	_, err = GenerateDistortionMeshes(params, 1)
	assert.Error(t, err)
}

func TestUVScaleOffsetMapsEdgesToTexture(t *testing.T) {
	params := DefaultDistortionParams()
	scale, offset := params.UVScaleOffset()

	edge := params.scaleAt(1)
	u := edge*scale[0] + offset[0]
	v := 1 - (edge*scale[1] + offset[1])

	assert.InDelta(t, 1.0, u, 1e-6)
	assert.InDelta(t, 1.0, v, 1e-6)
}
