package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeBuilder(d *fakeDriver) PipelineBuilder {
	return NewPipelineBuilder().
		WithRenderPass(vk.RenderPass(d.newHandle("render-pass"))).
		WithVertexShader(spirv(8)).
		WithFragmentShader(spirv(6)).
		WithVertexLayout(metadata.PosColLayout).
		WithViewport(ViewportForExtent(vk.Extent2D{Width: 800, Height: 600}))
}

func TestPipelineBuilderRequiresEveryPart(t *testing.T) {
	d := newFakeDriver()
	full := completeBuilder(d)
	tests := []struct {
		name    string
		builder PipelineBuilder
		driver  Driver
	}{
		{"device", full, nil},
		{"render pass", full.WithRenderPass(nil), d},
		{"vertex shader", full.WithVertexShader(nil), d},
		{"fragment shader", full.WithFragmentShader(nil), d},
		{"viewport", NewPipelineBuilder().WithRenderPass(full.renderPass).WithVertexShader(spirv(8)).WithFragmentShader(spirv(6)), d},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build(tt.driver)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrPipelineIncomplete)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
	assert.Zero(t, d.created["shader-module"], "validation happens before any object is created")
}

func TestPipelineBuilderIsImmutable(t *testing.T) {
	base := NewPipelineBuilder().WithVertexShader(spirv(4))
	withFrag := base.WithFragmentShader(spirv(5))

	assert.Nil(t, base.fragmentShader)
	assert.Len(t, withFrag.fragmentShader, 20)

	// Slices handed in are copied.
	code := spirv(4)
	b := NewPipelineBuilder().WithVertexShader(code)
	code[0] = 0xFF
	assert.Equal(t, byte(0x03), b.vertexShader[0])

	layouts := []vk.DescriptorSetLayout{nil}
	b = b.WithDescriptorSetLayouts(layouts...)
	layouts[0] = vk.DescriptorSetLayout(newFakeDriver().newHandle("descriptor-set-layout"))
	assert.Nil(t, b.setLayouts[0])
}

func TestPipelineBuild(t *testing.T) {
	d := newFakeDriver()
	pipeline, err := completeBuilder(d).WithCullMode(vk.CullModeFlags(vk.CullModeNone)).Build(d)
	require.NoError(t, err)

	assert.NotNil(t, pipeline.Handle)
	assert.NotNil(t, pipeline.PipelineLayout)
	assert.Equal(t, 2, d.created["shader-module"])
	assert.Zero(t, d.liveCount("shader-module"), "shader modules only live during Build")
	assert.Empty(t, d.violations)

	require.Len(t, d.pipelines, 1)
	info := d.pipelines[0]
	require.Len(t, info.PStages, 2)
	assert.Equal(t, vk.ShaderStageVertexBit, info.PStages[0].Stage)
	assert.Equal(t, vk.ShaderStageFragmentBit, info.PStages[1].Stage)

	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), info.PRasterizationState.CullMode)
	assert.Equal(t, vk.FrontFaceClockwise, info.PRasterizationState.FrontFace)

	// Scissor covers the viewport unless set.
	assert.Equal(t, vk.Rect2D{Extent: vk.Extent2D{Width: 800, Height: 600}}, info.PViewportState.PScissors[0])
	assert.Equal(t, float32(800), info.PViewportState.PViewports[0].Width)

	vertexInput := info.PVertexInputState
	assert.Equal(t, uint32(24), vertexInput.PVertexBindingDescriptions[0].Stride)
	require.Len(t, vertexInput.PVertexAttributeDescriptions, 2)
	assert.Equal(t, uint32(1), vertexInput.PVertexAttributeDescriptions[1].Location)
	assert.Equal(t, uint32(12), vertexInput.PVertexAttributeDescriptions[1].Offset)
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, info.PInputAssemblyState.Topology)

	pipeline.Destroy(d)
	assert.Zero(t, d.liveCount("pipeline"))
	assert.Zero(t, d.liveCount("pipeline-layout"))
}

func TestPipelineBuildFrontFace(t *testing.T) {
	d := newFakeDriver()
	_, err := completeBuilder(d).WithFrontFace(vk.FrontFaceCounterClockwise).Build(d)
	require.NoError(t, err)
	assert.Equal(t, vk.FrontFaceCounterClockwise, d.pipelines[0].PRasterizationState.FrontFace)
	assert.Equal(t, vk.PolygonModeFill, d.pipelines[0].PRasterizationState.PolygonMode)
}

func TestPipelineBuildScissorOverride(t *testing.T) {
	d := newFakeDriver()
	scissor := vk.Rect2D{Offset: vk.Offset2D{X: 10, Y: 20}, Extent: vk.Extent2D{Width: 100, Height: 50}}
	_, err := completeBuilder(d).WithScissor(scissor).Build(d)
	require.NoError(t, err)
	assert.Equal(t, scissor, d.pipelines[0].PViewportState.PScissors[0])
}

func TestPipelineBuildFailureReleasesLayout(t *testing.T) {
	d := newFakeDriver()
	d.pipelineErr = errors.New("pipeline rejected")

	pipeline, err := completeBuilder(d).Build(d)
	assert.ErrorIs(t, err, d.pipelineErr)
	assert.Nil(t, pipeline)
	assert.Zero(t, d.liveCount("pipeline-layout"))
	assert.Zero(t, d.liveCount("shader-module"))
}

func TestPipelineBuildRejectsBadShaderCode(t *testing.T) {
	d := newFakeDriver()
	_, err := completeBuilder(d).WithFragmentShader([]byte{1, 2, 3}).Build(d)
	require.Error(t, err)
	assert.Zero(t, d.liveCount("shader-module"))
	assert.Zero(t, d.created["pipeline-layout"])
}
