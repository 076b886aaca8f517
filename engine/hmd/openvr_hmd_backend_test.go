//go:build openvr

package hmd

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenVRFrameAfterClose(t *testing.T) {
	b := newOpenVRBackend(defaultDisplaySize).(*openVRBackend)
	require.NoError(t, b.Close())

	assert.NotPanics(t, func() {
		b.BeginFrame(0)
		b.EndFrame()
	})
	assert.Equal(t, common.Identity(), b.hmdPose)
}
