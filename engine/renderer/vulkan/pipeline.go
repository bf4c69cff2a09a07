package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

func (pipeline *VulkanPipeline) Destroy(d Driver) {
	// Destroy pipeline
	if pipeline.Handle != nil {
		d.DestroyPipeline(pipeline.Handle)
		pipeline.Handle = nil
	}
	// Destroy layout
	if pipeline.PipelineLayout != nil {
		d.DestroyPipelineLayout(pipeline.PipelineLayout)
		pipeline.PipelineLayout = nil
	}
}

// PipelineBuilder accumulates the state of a single graphics pipeline.
// Every With* method returns an updated copy and leaves the receiver
// untouched, so a partially configured builder can be shared and extended.
type PipelineBuilder struct {
	vertexShader   []byte
	fragmentShader []byte
	entryPoint     string
	vertexLayout   metadata.VertexLayout
	viewport       *vk.Viewport
	scissor        *vk.Rect2D
	setLayouts     []vk.DescriptorSetLayout
	renderPass     vk.RenderPass
	cullMode       vk.CullModeFlags
	frontFace      vk.FrontFace
}

func NewPipelineBuilder() PipelineBuilder {
	return PipelineBuilder{
		entryPoint: "main",
		cullMode:   vk.CullModeFlags(vk.CullModeBackBit),
		frontFace:  vk.FrontFaceClockwise,
	}
}

func (b PipelineBuilder) WithVertexShader(code []byte) PipelineBuilder {
	b.vertexShader = append([]byte(nil), code...)
	return b
}

func (b PipelineBuilder) WithFragmentShader(code []byte) PipelineBuilder {
	b.fragmentShader = append([]byte(nil), code...)
	return b
}

func (b PipelineBuilder) WithVertexLayout(layout metadata.VertexLayout) PipelineBuilder {
	layout.Attributes = append([]metadata.VertexAttribute(nil), layout.Attributes...)
	b.vertexLayout = layout
	return b
}

func (b PipelineBuilder) WithViewport(viewport vk.Viewport) PipelineBuilder {
	b.viewport = &viewport
	return b
}

// WithScissor overrides the scissor, which otherwise covers the viewport.
func (b PipelineBuilder) WithScissor(scissor vk.Rect2D) PipelineBuilder {
	b.scissor = &scissor
	return b
}

func (b PipelineBuilder) WithDescriptorSetLayouts(layouts ...vk.DescriptorSetLayout) PipelineBuilder {
	b.setLayouts = append([]vk.DescriptorSetLayout(nil), layouts...)
	return b
}

func (b PipelineBuilder) WithRenderPass(renderPass vk.RenderPass) PipelineBuilder {
	b.renderPass = renderPass
	return b
}

func (b PipelineBuilder) WithCullMode(mode vk.CullModeFlags) PipelineBuilder {
	b.cullMode = mode
	return b
}

func (b PipelineBuilder) WithFrontFace(face vk.FrontFace) PipelineBuilder {
	b.frontFace = face
	return b
}

// ViewportForExtent is a full-extent viewport with a [0, 1] depth range.
func ViewportForExtent(extent vk.Extent2D) vk.Viewport {
	return vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}

func (b PipelineBuilder) validate(d Driver) error {
	var missing string
	switch {
	case d == nil:
		missing = "device"
	case b.renderPass == nil:
		missing = "render pass"
	case len(b.vertexShader) == 0:
		missing = "vertex shader"
	case len(b.fragmentShader) == 0:
		missing = "fragment shader"
	case b.viewport == nil:
		missing = "viewport"
	default:
		return nil
	}
	return core.Fatal("build pipeline", fmt.Errorf("%w: %s not set", core.ErrPipelineIncomplete, missing))
}

// Build creates the pipeline layout and the pipeline. The shader modules
// only live for the duration of the call.
func (b PipelineBuilder) Build(d Driver) (*VulkanPipeline, error) {
	if err := b.validate(d); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	vertModule, err := d.CreateShaderModule(b.vertexShader)
	if err != nil {
		return nil, err
	}
	defer d.DestroyShaderModule(vertModule)

	fragModule, err := d.CreateShaderModule(b.fragmentShader)
	if err != nil {
		return nil, err
	}
	defer d.DestroyShaderModule(fragModule)

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertModule,
			PName:  VulkanSafeString(b.entryPoint),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  VulkanSafeString(b.entryPoint),
		},
	}

	// Viewport state
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: int32(b.viewport.X), Y: int32(b.viewport.Y)},
		Extent: vk.Extent2D{Width: uint32(b.viewport.Width), Height: uint32(b.viewport.Height)},
	}
	if b.scissor != nil {
		scissor = *b.scissor
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{*b.viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                b.cullMode,
		FrontFace:               b.frontFace,
		DepthBiasEnable:         vk.False,
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    b.vertexLayout.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(b.vertexLayout.Attributes))
	for i, attr := range b.vertexLayout.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: attr.Location,
			Binding:  0,
			Format:   attr.Format,
			Offset:   attr.Offset,
		}
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	// Input assembly
	topology := b.vertexLayout.Topology
	if b.vertexLayout.Stride == 0 {
		topology = vk.PrimitiveTopologyTriangleList
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               topology,
		PrimitiveRestartEnable: vk.False,
	}

	layout, err := d.CreatePipelineLayout(b.setLayouts)
	if err != nil {
		return nil, err
	}
	outPipeline := &VulkanPipeline{PipelineLayout: layout}

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PColorBlendState:    &colorBlendStateCreateInfo,
		Layout:              layout,
		RenderPass:          b.renderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	handle, err := d.CreateGraphicsPipeline(&pipelineCreateInfo)
	if err != nil {
		outPipeline.Destroy(d)
		return nil, err
	}
	outPipeline.Handle = handle

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}
