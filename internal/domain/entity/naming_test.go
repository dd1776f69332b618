package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingConvention(t *testing.T) {
	n := NewNamingConvention("hific-lo")

	assert.Equal(t, "frame7.png", n.FrameFileName(7))
	assert.Equal(t, "frame7_hific-lo.tfci", n.CompressedName("frame7"))
	assert.Equal(t, "frame7_hific-lo.png", n.OutputName("frame7"))
	assert.Equal(t, "frame%d_hific-lo.png", n.OutputPattern())
	assert.Equal(t, n.OutputName(Stem(n.FrameFileName(3))), fmt.Sprintf(n.OutputPattern(), 3))
	assert.Equal(t, n.FrameFileName(3), fmt.Sprintf(n.ExtractPattern(), 3))
}

func TestWithBPP(t *testing.T) {
	n := NewNamingConvention("hific-mi")
	assert.Equal(t, "frame0_hific-mi-0.123bpp.png", n.WithBPP("out_video/frame0_hific-mi.png", 0.12345))
}

func TestValidateModel(t *testing.T) {
	assert.NoError(t, ValidateModel("hific-hi"))
	assert.ErrorIs(t, ValidateModel("hific-xl"), ErrUnsupportedModel)
}

func TestOutputIndex(t *testing.T) {
	n := NewNamingConvention("hific-lo")

	idx, ok := n.OutputIndex("out_video/frame12_hific-lo.png")
	assert.True(t, ok)
	assert.Equal(t, 12, idx)

	for _, name := range []string{"frame3_hific-hi.png", "frameX_hific-lo.png", "clip_hific-lo.png", "frame-1_hific-lo.png"} {
		_, ok := n.OutputIndex(name)
		assert.False(t, ok, name)
	}
}
