package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// Window is the part of the platform window the frame engine reads.
type Window interface {
	// FramebufferSize is the drawable size in pixels, 0x0 while minimized.
	FramebufferSize() (width, height uint32)
	ShouldClose() bool
	// WaitEvents blocks until the window system delivers an event.
	WaitEvents()
}

// MeshBuffer is uploaded geometry: vertices and indices packed in one
// device-local buffer.
type MeshBuffer struct {
	Buffer       *DeviceBuffer
	VertexOffset uint64
	IndexOffset  uint64
	IndexCount   uint32
	Layout       metadata.VertexLayout
}

func (mb *MeshBuffer) Destroy(d Driver) {
	if mb.Buffer != nil {
		mb.Buffer.Destroy(d)
		mb.Buffer = nil
	}
}

/** @brief SPIR-V blobs for the two shader stages. */
type ShaderSet struct {
	Vertex   []byte
	Fragment []byte
}

// VulkanContext is threaded through every component of the frame engine
// in place of global renderer state.
type VulkanContext struct {
	Driver Driver
	Window Window

	// The framebuffer's current width.
	FramebufferWidth uint32
	// The framebuffer's current height.
	FramebufferHeight uint32
	// Set by a window resize, consumed after the next present.
	Resized core.Consumable

	// Upper bound in nanoseconds for any fence wait.
	FenceTimeout uint64
	ClearColor   [4]float32
	CullMode     vk.CullModeFlags
	FrontFace    vk.FrontFace

	Shaders             ShaderSet
	Mesh                *MeshBuffer
	UniformSize         uint64
	DescriptorSetLayout vk.DescriptorSetLayout

	// The live swapchain generation, nil before the first create.
	Swapchain   *Swapchain
	FrameNumber uint64
}
