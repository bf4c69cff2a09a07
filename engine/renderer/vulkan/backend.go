package vulkan

import (
	"fmt"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// Platform is what the renderer needs from the window system on top of
// the window itself.
type Platform interface {
	Window
	InstanceProcAddress() unsafe.Pointer
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type RendererConfig struct {
	ApplicationName    string
	Validation         bool
	RequireDiscreteGPU bool
	FenceTimeout       time.Duration
	ClearColor         [4]float32
	CullMode           vk.CullModeFlags
	FrontFace          vk.FrontFace
	Mesh               *metadata.Mesh
	Shaders            ShaderSet
	// Size of the per-image uniform block, TransMatsSize when zero.
	UniformSize uint64
}

// VulkanRenderer owns the instance, the device and the frame engine built
// on top of them. Create context, acquire device, run, release in reverse.
type VulkanRenderer struct {
	platform Platform
	config   RendererConfig

	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	surface       vk.Surface
	device        *VulkanDevice

	context    *VulkanContext
	swapchains *SwapchainManager
	scheduler  *FrameScheduler
	onFrame    FrameHook
}

func New(p Platform, config RendererConfig) *VulkanRenderer {
	if config.UniformSize == 0 {
		config.UniformSize = metadata.TransMatsSize
	}
	return &VulkanRenderer{
		platform:      p,
		config:        config,
		debugCallback: vk.NullDebugReportCallback,
		surface:       vk.NullSurface,
	}
}

func (vr *VulkanRenderer) Initialize() error {
	if err := InitLoader(vr.platform.InstanceProcAddress()); err != nil {
		return err
	}

	instance, err := CreateInstance(vr.config.ApplicationName, vr.platform.RequiredInstanceExtensions(), vr.config.Validation)
	if err != nil {
		return err
	}
	vr.instance = instance

	if vr.config.Validation {
		if vr.debugCallback, err = CreateDebugCallback(instance); err != nil {
			vr.Shutdown()
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	if vr.surface, err = vr.platform.CreateSurface(instance); err != nil {
		core.LogError("Failed to create platform surface!")
		vr.Shutdown()
		return core.Fatal("create surface", err)
	}
	core.LogDebug("Vulkan surface created.")

	device, err := DeviceCreate(instance, vr.surface, VulkanPhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		Transfer:             true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
		DiscreteGPU:          vr.config.RequireDiscreteGPU,
	})
	if err != nil {
		core.LogError("Failed to create device!")
		vr.Shutdown()
		return err
	}
	vr.device = device

	if err := vr.attach(device); err != nil {
		vr.Shutdown()
		return err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// attach builds the frame engine on d: uniform layout, mesh upload and the
// first swapchain generation.
func (vr *VulkanRenderer) attach(d Driver) error {
	mesh := vr.config.Mesh
	if mesh == nil {
		return core.Fatal("attach renderer", fmt.Errorf("no mesh configured"))
	}
	if err := mesh.Validate(); err != nil {
		return core.Fatal("attach renderer", err)
	}
	if vr.config.FenceTimeout <= 0 {
		return core.Fatal("attach renderer", fmt.Errorf("fence timeout must be positive"))
	}

	vr.context = &VulkanContext{
		Driver:       d,
		Window:       vr.platform,
		FenceTimeout: uint64(vr.config.FenceTimeout.Nanoseconds()),
		ClearColor:   vr.config.ClearColor,
		CullMode:     vr.config.CullMode,
		FrontFace:    vr.config.FrontFace,
		Shaders:      vr.config.Shaders,
		UniformSize:  vr.config.UniformSize,
	}

	// Binding 0: the per-image uniform block, read by the vertex stage.
	layout, err := d.CreateDescriptorSetLayout([]vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}})
	if err != nil {
		return err
	}
	vr.context.DescriptorSetLayout = layout

	data, indexOffset := mesh.Pack()
	uploader := NewResourceUploader(d, vr.context.FenceTimeout)
	buffer, err := uploader.Upload(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit), data)
	if err != nil {
		vr.detach()
		return err
	}
	vr.context.Mesh = &MeshBuffer{
		Buffer:       buffer,
		VertexOffset: 0,
		IndexOffset:  indexOffset,
		IndexCount:   mesh.IndexCount(),
		Layout:       mesh.Layout,
	}
	core.LogDebug("Mesh %q uploaded: %d bytes, indices at %d.", mesh.Name, len(data), indexOffset)

	recorder := NewCommandRecorder(vr.context)
	vr.swapchains = NewSwapchainManager(vr.context, recorder)
	vr.scheduler = NewFrameScheduler(vr.context, vr.swapchains)
	if vr.onFrame != nil {
		vr.scheduler.OnFrame(vr.onFrame)
	}
	if _, err := vr.swapchains.Create(); err != nil {
		vr.detach()
		return err
	}
	return nil
}

// detach releases everything attach created, in reverse order.
func (vr *VulkanRenderer) detach() {
	ctx := vr.context
	if ctx == nil {
		return
	}
	if vr.swapchains != nil {
		if err := vr.swapchains.Destroy(); err != nil {
			core.LogWarn("wait idle before teardown failed: %s", err)
		}
	}
	if ctx.Mesh != nil {
		ctx.Mesh.Destroy(ctx.Driver)
		ctx.Mesh = nil
	}
	if ctx.DescriptorSetLayout != nil {
		ctx.Driver.DestroyDescriptorSetLayout(ctx.DescriptorSetLayout)
		ctx.DescriptorSetLayout = nil
	}
	vr.swapchains = nil
	vr.scheduler = nil
	vr.context = nil
}

func (vr *VulkanRenderer) Shutdown() error {
	// Destroy in the opposite order of creation.
	vr.detach()

	if vr.device != nil {
		core.LogDebug("Destroying Vulkan device...")
		vr.device.Destroy()
		vr.device = nil
	}

	if vr.surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vr.instance, vr.surface, nil)
		vr.surface = vk.NullSurface
	}

	if vr.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.instance, vr.debugCallback, nil)
		vr.debugCallback = vk.NullDebugReportCallback
	}

	if vr.instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vr.instance, nil)
		vr.instance = nil
	}
	return nil
}

// DrawFrame renders one frame. Every returned error is fatal.
func (vr *VulkanRenderer) DrawFrame() error {
	if vr.scheduler == nil {
		return core.Fatal("draw frame", fmt.Errorf("renderer not initialized"))
	}
	return vr.scheduler.DrawFrame()
}

// Resized flags the swapchain for a rebuild after the next present.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	if vr.context == nil {
		return
	}
	vr.context.Resized.Set()
	core.LogInfo("Vulkan renderer backend->resized: w/h: %d/%d", width, height)
}

// ReloadShaders rebuilds the pipeline with new shader blobs. When the new
// set is rejected the previous one is restored and the returned error
// matches core.ErrShaderRejected. Any other error is fatal.
func (vr *VulkanRenderer) ReloadShaders(shaders ShaderSet) error {
	if vr.context == nil {
		return core.Fatal("reload shaders", fmt.Errorf("renderer not initialized"))
	}
	previous := vr.context.Shaders
	vr.context.Shaders = shaders
	err := vr.swapchains.Recreate()
	if err == nil {
		vr.config.Shaders = shaders
		core.LogInfo("Shaders reloaded.")
		return nil
	}

	core.LogError("shader reload failed, restoring previous shaders: %s", err)
	vr.context.Shaders = previous
	if restoreErr := vr.swapchains.Recreate(); restoreErr != nil {
		return restoreErr
	}
	return fmt.Errorf("reload shaders: %w: %w", core.ErrShaderRejected, err)
}

// OnFrame installs hook on the scheduler. It survives re-initialization.
func (vr *VulkanRenderer) OnFrame(hook FrameHook) {
	vr.onFrame = hook
	if vr.scheduler != nil {
		vr.scheduler.OnFrame(hook)
	}
}

// UniformSource produces the uniform block for the frame about to be drawn
// into imageIndex. A nil block leaves the slot untouched.
type UniformSource func(imageIndex uint32, extent vk.Extent2D) ([]byte, error)

// OnUniforms writes the block returned by source into the ring slot of the
// acquired image, every frame.
func (vr *VulkanRenderer) OnUniforms(source UniformSource) {
	vr.OnFrame(func(imageIndex uint32, sc *Swapchain) error {
		data, err := source(imageIndex, sc.Extent)
		if err != nil || data == nil {
			return err
		}
		return sc.Uniforms.Write(vr.context.Driver, imageIndex, data)
	})
}

// Extent is the current swapchain extent, zero before initialization.
func (vr *VulkanRenderer) Extent() vk.Extent2D {
	if vr.context == nil || vr.context.Swapchain == nil {
		return vk.Extent2D{}
	}
	return vr.context.Swapchain.Extent
}

func (vr *VulkanRenderer) FrameNumber() uint64 {
	if vr.context == nil {
		return 0
	}
	return vr.context.FrameNumber
}

func (vr *VulkanRenderer) Recreations() int {
	if vr.swapchains == nil {
		return 0
	}
	return vr.swapchains.Recreations()
}
