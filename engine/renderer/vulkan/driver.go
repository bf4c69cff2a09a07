package vulkan

import (
	vk "github.com/goki/vulkan"
)

// QueueKind names one of the three queues the device was created with.
type QueueKind uint8

const (
	QueueGraphics QueueKind = iota
	QueuePresent
	QueueTransfer
)

func (q QueueKind) String() string {
	switch q {
	case QueueGraphics:
		return "graphics"
	case QueuePresent:
		return "present"
	case QueueTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

/**
 * @brief Surface properties a swapchain is chosen from.
 */
type SwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainConfig is what the swapchain manager decided; the driver fills
// in surface, sharing mode and queue family indices.
type SwapchainConfig struct {
	Format       vk.SurfaceFormat
	PresentMode  vk.PresentMode
	Extent       vk.Extent2D
	ImageCount   uint32
	PreTransform vk.SurfaceTransformFlagBits
}

// SubmitInfo describes a single command buffer submission. Null
// semaphores and fences are skipped.
type SubmitInfo struct {
	CommandBuffer vk.CommandBuffer
	Wait          vk.Semaphore
	WaitStage     vk.PipelineStageFlags
	Signal        vk.Semaphore
	Fence         vk.Fence
}

// Driver is every GPU call the frame engine makes. VulkanDevice implements
// it on top of a logical device; tests swap in a software double.
type Driver interface {
	WaitIdle() error
	MinUniformBufferOffsetAlignment() uint64
	MemoryTypes() []vk.MemoryPropertyFlags
	SurfaceSupport() (*SwapchainSupportInfo, error)

	CreateSwapchain(config SwapchainConfig) (vk.Swapchain, error)
	SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error)
	DestroySwapchain(swapchain vk.Swapchain)
	AcquireNextImage(swapchain vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result)
	Present(swapchain vk.Swapchain, imageIndex uint32, wait vk.Semaphore) vk.Result

	CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error)
	DestroyImageView(view vk.ImageView)
	CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(renderPass vk.RenderPass)
	CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)

	CreateShaderModule(code []byte) (vk.ShaderModule, error)
	DestroyShaderModule(module vk.ShaderModule)
	CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout) (vk.PipelineLayout, error)
	DestroyPipelineLayout(layout vk.PipelineLayout)
	CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(pipeline vk.Pipeline)

	CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout)
	CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error)
	DestroyDescriptorPool(pool vk.DescriptorPool)
	AllocateDescriptorSets(pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error)
	UpdateDescriptorSets(writes []vk.WriteDescriptorSet)

	CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, vk.MemoryRequirements, error)
	DestroyBuffer(buffer vk.Buffer)
	AllocateMemory(size vk.DeviceSize, memoryTypeIndex uint32) (vk.DeviceMemory, error)
	FreeMemory(memory vk.DeviceMemory)
	BindBufferMemory(buffer vk.Buffer, memory vk.DeviceMemory) error
	WriteMemory(memory vk.DeviceMemory, offset vk.DeviceSize, data []byte) error
	ReadMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error)

	AllocateCommandBuffers(queue QueueKind, count uint32) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(queue QueueKind, buffers []vk.CommandBuffer)
	BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error
	EndCommandBuffer(buffer vk.CommandBuffer) error
	CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	CmdEndRenderPass(buffer vk.CommandBuffer)
	CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline)
	CmdBindVertexBuffer(buffer vk.CommandBuffer, vertexBuffer vk.Buffer, offset vk.DeviceSize)
	CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize)
	CmdBindDescriptorSet(buffer vk.CommandBuffer, layout vk.PipelineLayout, set vk.DescriptorSet)
	CmdDrawIndexed(buffer vk.CommandBuffer, indexCount uint32)
	CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize)

	CreateFence(signaled bool) (vk.Fence, error)
	DestroyFence(fence vk.Fence)
	WaitForFence(fence vk.Fence, timeout uint64) vk.Result
	ResetFence(fence vk.Fence) error
	CreateSemaphore() (vk.Semaphore, error)
	DestroySemaphore(semaphore vk.Semaphore)
	Submit(queue QueueKind, info SubmitInfo) vk.Result
}
