package vulkan

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

var _ Driver = (*VulkanDevice)(nil)

func (vd *VulkanDevice) queue(kind QueueKind) (vk.Queue, uint32) {
	switch kind {
	case QueuePresent:
		return vd.PresentQueue, uint32(vd.PresentQueueIndex)
	case QueueTransfer:
		return vd.TransferQueue, uint32(vd.TransferQueueIndex)
	default:
		return vd.GraphicsQueue, uint32(vd.GraphicsQueueIndex)
	}
}

func (vd *VulkanDevice) commandPool(kind QueueKind) vk.CommandPool {
	if kind == QueueTransfer {
		return vd.TransferCommandPool
	}
	return vd.GraphicsCommandPool
}

func (vd *VulkanDevice) WaitIdle() error {
	if res := vk.DeviceWaitIdle(vd.LogicalDevice); res != vk.Success {
		return resultError("device wait idle", res)
	}
	return nil
}

func (vd *VulkanDevice) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(vd.Properties.Limits.MinUniformBufferOffsetAlignment)
}

func (vd *VulkanDevice) MemoryTypes() []vk.MemoryPropertyFlags {
	return vd.memoryTypes
}

func (vd *VulkanDevice) SurfaceSupport() (*SwapchainSupportInfo, error) {
	return querySwapchainSupport(vd.PhysicalDevice, vd.Surface)
}

func (vd *VulkanDevice) CreateSwapchain(config SwapchainConfig) (vk.Swapchain, error) {
	support, err := vd.SurfaceSupport()
	if err != nil {
		return vk.NullSwapchain, err
	}

	// Find a supported composite alpha mode - one of these is guaranteed to be set
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if support.Capabilities.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vd.Surface,
		MinImageCount:    config.ImageCount,
		ImageFormat:      config.Format.Format,
		ImageColorSpace:  config.Format.ColorSpace,
		ImageExtent:      config.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     config.PreTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      config.PresentMode,
		Clipped:          vk.True,
		// The previous generation is always destroyed first.
		OldSwapchain: vk.NullSwapchain,
	}

	// Setup the queue family indices
	if vd.GraphicsQueueIndex != vd.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{uint32(vd.GraphicsQueueIndex), uint32(vd.PresentQueueIndex)}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err = vd.locks.SafeCall(SwapchainManagement, func() error {
		if res := vk.CreateSwapchain(vd.LogicalDevice, &swapchainCreateInfo, nil, &swapchain); res != vk.Success {
			return resultError("create swapchain", res)
		}
		return nil
	})
	return swapchain, err
}

func (vd *VulkanDevice) SwapchainImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	var imageCount uint32
	if res := vk.GetSwapchainImages(vd.LogicalDevice, swapchain, &imageCount, nil); res != vk.Success {
		return nil, resultError("get swapchain images", res)
	}
	images := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(vd.LogicalDevice, swapchain, &imageCount, images); res != vk.Success {
		return nil, resultError("get swapchain images", res)
	}
	return images, nil
}

func (vd *VulkanDevice) DestroySwapchain(swapchain vk.Swapchain) {
	vd.locks.SafeCall(SwapchainManagement, func() error {
		vk.DestroySwapchain(vd.LogicalDevice, swapchain, nil)
		return nil
	})
}

func (vd *VulkanDevice) AcquireNextImage(swapchain vk.Swapchain, timeout uint64, signal vk.Semaphore) (uint32, vk.Result) {
	var imageIndex uint32
	result := vk.AcquireNextImage(vd.LogicalDevice, swapchain, timeout, signal, vk.NullFence, &imageIndex)
	return imageIndex, result
}

func (vd *VulkanDevice) Present(swapchain vk.Swapchain, imageIndex uint32, wait vk.Semaphore) vk.Result {
	queue, family := vd.queue(QueuePresent)
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	var result vk.Result
	vd.locks.SafeQueueCall(family, func() error {
		result = vk.QueuePresent(queue, &presentInfo)
		return nil
	})
	return result
}

func (vd *VulkanDevice) CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(vd.LogicalDevice, &viewInfo, nil, &view); res != vk.Success {
		return nil, resultError("create image view", res)
	}
	return view, nil
}

func (vd *VulkanDevice) DestroyImageView(view vk.ImageView) {
	vk.DestroyImageView(vd.LogicalDevice, view, nil)
}

func (vd *VulkanDevice) CreateRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(vd.LogicalDevice, info, nil, &renderPass); res != vk.Success {
		return nil, resultError("create render pass", res)
	}
	return renderPass, nil
}

func (vd *VulkanDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	vk.DestroyRenderPass(vd.LogicalDevice, renderPass, nil)
}

func (vd *VulkanDevice) CreateFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(vd.LogicalDevice, info, nil, &framebuffer); res != vk.Success {
		return nil, resultError("create framebuffer", res)
	}
	return framebuffer, nil
}

func (vd *VulkanDevice) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(vd.LogicalDevice, framebuffer, nil)
}

func (vd *VulkanDevice) CreateShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, core.Fatal("create shader module", fmt.Errorf("%w: %d bytes", core.ErrInvalidShader, len(code)))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(vd.LogicalDevice, &createInfo, nil, &module); res != vk.Success {
		return nil, resultError("create shader module", res)
	}
	return module, nil
}

func (vd *VulkanDevice) DestroyShaderModule(module vk.ShaderModule) {
	vk.DestroyShaderModule(vd.LogicalDevice, module, nil)
}

func (vd *VulkanDevice) CreatePipelineLayout(setLayouts []vk.DescriptorSetLayout) (vk.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(setLayouts)),
		PSetLayouts:    setLayouts,
	}
	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(vd.LogicalDevice, &pipelineLayoutCreateInfo, nil, &layout); res != vk.Success {
		return nil, resultError("create pipeline layout", res)
	}
	return layout, nil
}

func (vd *VulkanDevice) DestroyPipelineLayout(layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(vd.LogicalDevice, layout, nil)
}

func (vd *VulkanDevice) CreateGraphicsPipeline(info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(vd.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines); res != vk.Success {
		return nil, resultError("create graphics pipeline", res)
	}
	return pipelines[0], nil
}

func (vd *VulkanDevice) DestroyPipeline(pipeline vk.Pipeline) {
	vk.DestroyPipeline(vd.LogicalDevice, pipeline, nil)
}

func (vd *VulkanDevice) CreateDescriptorSetLayout(bindings []vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(vd.LogicalDevice, &layoutInfo, nil, &layout); res != vk.Success {
		return nil, resultError("create descriptor set layout", res)
	}
	return layout, nil
}

func (vd *VulkanDevice) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(vd.LogicalDevice, layout, nil)
}

func (vd *VulkanDevice) CreateDescriptorPool(maxSets uint32, sizes []vk.DescriptorPoolSize) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(vd.LogicalDevice, &poolInfo, nil, &pool); res != vk.Success {
		return nil, resultError("create descriptor pool", res)
	}
	return pool, nil
}

func (vd *VulkanDevice) DestroyDescriptorPool(pool vk.DescriptorPool) {
	vd.locks.SafeCall(DescriptorManagement, func() error {
		vk.DestroyDescriptorPool(vd.LogicalDevice, pool, nil)
		return nil
	})
}

func (vd *VulkanDevice) AllocateDescriptorSets(pool vk.DescriptorPool, layout vk.DescriptorSetLayout, count uint32) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: count,
		PSetLayouts:        layouts,
	}
	sets := make([]vk.DescriptorSet, count)
	err := vd.locks.SafeCall(DescriptorManagement, func() error {
		if res := vk.AllocateDescriptorSets(vd.LogicalDevice, &allocInfo, &sets[0]); res != vk.Success {
			return resultError("allocate descriptor sets", res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func (vd *VulkanDevice) UpdateDescriptorSets(writes []vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(vd.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func (vd *VulkanDevice) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags) (vk.Buffer, vk.MemoryRequirements, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	// Buffers written on the transfer queue and read on the graphics queue.
	if vd.TransferQueueIndex != vd.GraphicsQueueIndex {
		bufferInfo.SharingMode = vk.SharingModeConcurrent
		bufferInfo.QueueFamilyIndexCount = 2
		bufferInfo.PQueueFamilyIndices = []uint32{uint32(vd.GraphicsQueueIndex), uint32(vd.TransferQueueIndex)}
	}

	var buffer vk.Buffer
	if res := vk.CreateBuffer(vd.LogicalDevice, &bufferInfo, nil, &buffer); res != vk.Success {
		return nil, vk.MemoryRequirements{}, resultError("create buffer", res)
	}
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(vd.LogicalDevice, buffer, &reqs)
	reqs.Deref()
	return buffer, reqs, nil
}

func (vd *VulkanDevice) DestroyBuffer(buffer vk.Buffer) {
	vk.DestroyBuffer(vd.LogicalDevice, buffer, nil)
}

func (vd *VulkanDevice) AllocateMemory(size vk.DeviceSize, memoryTypeIndex uint32) (vk.DeviceMemory, error) {
	var memory vk.DeviceMemory
	err := vd.locks.SafeCall(MemoryManagement, func() error {
		if res := vk.AllocateMemory(vd.LogicalDevice, &vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  size,
			MemoryTypeIndex: memoryTypeIndex,
		}, nil, &memory); res != vk.Success {
			return resultError("allocate memory", res)
		}
		return nil
	})
	return memory, err
}

func (vd *VulkanDevice) FreeMemory(memory vk.DeviceMemory) {
	vd.locks.SafeCall(MemoryManagement, func() error {
		vk.FreeMemory(vd.LogicalDevice, memory, nil)
		return nil
	})
}

func (vd *VulkanDevice) BindBufferMemory(buffer vk.Buffer, memory vk.DeviceMemory) error {
	if res := vk.BindBufferMemory(vd.LogicalDevice, buffer, memory, 0); res != vk.Success {
		return resultError("bind buffer memory", res)
	}
	return nil
}

// mapped runs fn with size bytes of memory mapped at offset.
func (vd *VulkanDevice) mapped(memory vk.DeviceMemory, offset, size vk.DeviceSize, fn func(ptr unsafe.Pointer)) error {
	return vd.locks.SafeCall(MemoryManagement, func() error {
		var ptr unsafe.Pointer
		if res := vk.MapMemory(vd.LogicalDevice, memory, offset, size, 0, &ptr); res != vk.Success {
			return resultError("map memory", res)
		}
		fn(ptr)
		vk.UnmapMemory(vd.LogicalDevice, memory)
		return nil
	})
}

func (vd *VulkanDevice) WriteMemory(memory vk.DeviceMemory, offset vk.DeviceSize, data []byte) error {
	return vd.mapped(memory, offset, vk.DeviceSize(len(data)), func(ptr unsafe.Pointer) {
		vk.Memcopy(ptr, data)
	})
}

func (vd *VulkanDevice) ReadMemory(memory vk.DeviceMemory, offset, size vk.DeviceSize) ([]byte, error) {
	out := make([]byte, size)
	err := vd.mapped(memory, offset, size, func(ptr unsafe.Pointer) {
		copy(out, unsafe.Slice((*byte)(ptr), int(size)))
	})
	return out, err
}

func (vd *VulkanDevice) AllocateCommandBuffers(queue QueueKind, count uint32) ([]vk.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vd.commandPool(queue),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	buffers := make([]vk.CommandBuffer, count)
	err := vd.locks.SafeCall(CommandBufferManagement, func() error {
		if res := vk.AllocateCommandBuffers(vd.LogicalDevice, &allocateInfo, buffers); res != vk.Success {
			return resultError("allocate command buffers", res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buffers, nil
}

func (vd *VulkanDevice) FreeCommandBuffers(queue QueueKind, buffers []vk.CommandBuffer) {
	vd.locks.SafeCall(CommandBufferManagement, func() error {
		vk.FreeCommandBuffers(vd.LogicalDevice, vd.commandPool(queue), uint32(len(buffers)), buffers)
		return nil
	})
}

func (vd *VulkanDevice) BeginCommandBuffer(buffer vk.CommandBuffer, flags vk.CommandBufferUsageFlags) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}
	if res := vk.BeginCommandBuffer(buffer, &beginInfo); res != vk.Success {
		return resultError("begin command buffer", res)
	}
	return nil
}

func (vd *VulkanDevice) EndCommandBuffer(buffer vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(buffer); res != vk.Success {
		return resultError("end command buffer", res)
	}
	return nil
}

func (vd *VulkanDevice) CmdBeginRenderPass(buffer vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(buffer, info, vk.SubpassContentsInline)
}

func (vd *VulkanDevice) CmdEndRenderPass(buffer vk.CommandBuffer) {
	vk.CmdEndRenderPass(buffer)
}

func (vd *VulkanDevice) CmdBindPipeline(buffer vk.CommandBuffer, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(buffer, vk.PipelineBindPointGraphics, pipeline)
}

func (vd *VulkanDevice) CmdBindVertexBuffer(buffer vk.CommandBuffer, vertexBuffer vk.Buffer, offset vk.DeviceSize) {
	vk.CmdBindVertexBuffers(buffer, 0, 1, []vk.Buffer{vertexBuffer}, []vk.DeviceSize{offset})
}

func (vd *VulkanDevice) CmdBindIndexBuffer(buffer vk.CommandBuffer, indexBuffer vk.Buffer, offset vk.DeviceSize) {
	vk.CmdBindIndexBuffer(buffer, indexBuffer, offset, vk.IndexTypeUint32)
}

func (vd *VulkanDevice) CmdBindDescriptorSet(buffer vk.CommandBuffer, layout vk.PipelineLayout, set vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(buffer, vk.PipelineBindPointGraphics, layout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
}

func (vd *VulkanDevice) CmdDrawIndexed(buffer vk.CommandBuffer, indexCount uint32) {
	vk.CmdDrawIndexed(buffer, indexCount, 1, 0, 0, 0)
}

func (vd *VulkanDevice) CmdCopyBuffer(buffer vk.CommandBuffer, src, dst vk.Buffer, size vk.DeviceSize) {
	vk.CmdCopyBuffer(buffer, src, dst, 1, []vk.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: size}})
}

func (vd *VulkanDevice) CreateFence(signaled bool) (vk.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if res := vk.CreateFence(vd.LogicalDevice, &fenceCreateInfo, nil, &fence); res != vk.Success {
		return vk.NullFence, resultError("create fence", res)
	}
	return fence, nil
}

func (vd *VulkanDevice) DestroyFence(fence vk.Fence) {
	vk.DestroyFence(vd.LogicalDevice, fence, nil)
}

func (vd *VulkanDevice) WaitForFence(fence vk.Fence, timeout uint64) vk.Result {
	return vk.WaitForFences(vd.LogicalDevice, 1, []vk.Fence{fence}, vk.True, timeout)
}

func (vd *VulkanDevice) ResetFence(fence vk.Fence) error {
	if res := vk.ResetFences(vd.LogicalDevice, 1, []vk.Fence{fence}); res != vk.Success {
		return resultError("reset fence", res)
	}
	return nil
}

func (vd *VulkanDevice) CreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(vd.LogicalDevice, &semaphoreCreateInfo, nil, &semaphore); res != vk.Success {
		return vk.NullSemaphore, resultError("create semaphore", res)
	}
	return semaphore, nil
}

func (vd *VulkanDevice) DestroySemaphore(semaphore vk.Semaphore) {
	vk.DestroySemaphore(vd.LogicalDevice, semaphore, nil)
}

func (vd *VulkanDevice) Submit(kind QueueKind, info SubmitInfo) vk.Result {
	queue, family := vd.queue(kind)
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{info.CommandBuffer},
	}
	if info.Wait != vk.NullSemaphore {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{info.Wait}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{info.WaitStage}
	}
	if info.Signal != vk.NullSemaphore {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{info.Signal}
	}

	var result vk.Result
	vd.locks.SafeQueueCall(family, func() error {
		result = vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, info.Fence)
		return nil
	})
	return result
}
