package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/math"
)

// Swapchain is one generation of everything that depends on the
// presentable images. It is built whole and destroyed whole, never patched.
// For every generation len(CommandBuffers) == len(Framebuffers) ==
// len(Views) == len(Images).
type Swapchain struct {
	ID           uuid.UUID
	Handle       vk.Swapchain
	ImageFormat  vk.SurfaceFormat
	PresentMode  vk.PresentMode
	Extent       vk.Extent2D
	Images       []vk.Image
	Views        []vk.ImageView
	Renderpass   *VulkanRenderpass
	Framebuffers []*VulkanFramebuffer
	Pipeline     *VulkanPipeline
	Uniforms     *UniformRing
	// One per image, recorded once per generation.
	CommandBuffers []*VulkanCommandBuffer
	Sync           *FrameSync
}

func (sc *Swapchain) ImageCount() uint32 {
	return uint32(len(sc.Images))
}

// Destroy releases the generation in dependency order. It copes with a
// generation that failed half way through construction.
func (sc *Swapchain) Destroy(d Driver) {
	FreeCommandBuffers(d, sc.CommandBuffers)
	sc.CommandBuffers = nil

	if sc.Uniforms != nil {
		sc.Uniforms.Destroy(d)
		sc.Uniforms = nil
	}
	if sc.Pipeline != nil {
		sc.Pipeline.Destroy(d)
		sc.Pipeline = nil
	}
	for _, fb := range sc.Framebuffers {
		fb.Destroy(d)
	}
	sc.Framebuffers = nil
	if sc.Renderpass != nil {
		sc.Renderpass.Destroy(d)
		sc.Renderpass = nil
	}
	for _, view := range sc.Views {
		d.DestroyImageView(view)
	}
	sc.Views = nil
	// Images are owned by the swapchain.
	sc.Images = nil
	if sc.Handle != vk.NullSwapchain {
		d.DestroySwapchain(sc.Handle)
		sc.Handle = vk.NullSwapchain
	}
	if sc.Sync != nil {
		sc.Sync.Destroy(d)
		sc.Sync = nil
	}
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// device has to support.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

var preferredFormats = []vk.Format{vk.FormatB8g8r8a8Srgb, vk.FormatB8g8r8a8Unorm}

// ChooseSurfaceFormat picks a BGRA8 format with the sRGB non-linear colour
// space. A single undefined entry means the surface takes anything.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: preferredFormats[0], ColorSpace: vk.ColorSpaceSrgbNonlinear}, nil
	}
	for _, want := range preferredFormats {
		for _, f := range formats {
			if f.Format == want && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return f, nil
			}
		}
	}
	return vk.SurfaceFormat{}, core.Fatal("choose surface format", fmt.Errorf("%w among %d formats", core.ErrNoSurfaceFormat, len(formats)))
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseExtent uses the surface's current extent, or the drawable size
// clamped to the surface bounds when the surface leaves it up to us.
func ChooseExtent(caps vk.SurfaceCapabilities, drawable vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(drawable.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(drawable.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// SwapchainManager owns the swapchain generation stored in the context.
type SwapchainManager struct {
	context     *VulkanContext
	recorder    *CommandRecorder
	recreations int
}

func NewSwapchainManager(context *VulkanContext, recorder *CommandRecorder) *SwapchainManager {
	return &SwapchainManager{context: context, recorder: recorder}
}

// Recreations counts completed Recreate calls.
func (sm *SwapchainManager) Recreations() int {
	return sm.recreations
}

// waitForDrawableSize blocks on window events while the window is
// minimized.
func (sm *SwapchainManager) waitForDrawableSize() (vk.Extent2D, error) {
	for {
		width, height := sm.context.Window.FramebufferSize()
		if width > 0 && height > 0 {
			return vk.Extent2D{Width: width, Height: height}, nil
		}
		if sm.context.Window.ShouldClose() {
			return vk.Extent2D{}, core.ErrWindowClosed
		}
		core.LogDebug("Drawable size is %dx%d, waiting for events.", width, height)
		sm.context.Window.WaitEvents()
	}
}

// Create builds a new generation for the current drawable size and makes
// it the context's swapchain.
func (sm *SwapchainManager) Create() (*Swapchain, error) {
	ctx := sm.context
	if ctx.Swapchain != nil {
		return nil, core.Fatal("create swapchain", fmt.Errorf("generation %s still alive", ctx.Swapchain.ID))
	}
	if ctx.Mesh == nil {
		return nil, core.Fatal("create swapchain", fmt.Errorf("no mesh uploaded"))
	}

	drawable, err := sm.waitForDrawableSize()
	if err != nil {
		return nil, err
	}
	support, err := ctx.Driver.SurfaceSupport()
	if err != nil {
		return nil, err
	}

	sc, err := sm.create(support, drawable)
	if err != nil {
		return nil, err
	}
	ctx.Swapchain = sc
	ctx.FramebufferWidth = sc.Extent.Width
	ctx.FramebufferHeight = sc.Extent.Height
	// The new generation already has the current size.
	ctx.Resized.Consume()
	return sc, nil
}

func (sm *SwapchainManager) create(support *SwapchainSupportInfo, drawable vk.Extent2D) (*Swapchain, error) {
	ctx := sm.context
	d := ctx.Driver
	caps := support.Capabilities

	format, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return nil, err
	}
	sc := &Swapchain{
		ID:          uuid.New(),
		ImageFormat: format,
		PresentMode: ChoosePresentMode(support.PresentModes),
		Extent:      ChooseExtent(caps, drawable),
	}

	if err := sm.build(sc, caps); err != nil {
		core.LogError("swapchain generation %s failed: %s", sc.ID, err)
		sc.Destroy(d)
		return nil, err
	}

	core.LogInfo("Swapchain %s created: %dx%d, %d images.", sc.ID, sc.Extent.Width, sc.Extent.Height, sc.ImageCount())
	return sc, nil
}

func (sm *SwapchainManager) build(sc *Swapchain, caps vk.SurfaceCapabilities) error {
	ctx := sm.context
	d := ctx.Driver

	handle, err := d.CreateSwapchain(SwapchainConfig{
		Format:       sc.ImageFormat,
		PresentMode:  sc.PresentMode,
		Extent:       sc.Extent,
		ImageCount:   ChooseImageCount(caps),
		PreTransform: caps.CurrentTransform,
	})
	if err != nil {
		return err
	}
	sc.Handle = handle

	if sc.Images, err = d.SwapchainImages(handle); err != nil {
		return err
	}
	if len(sc.Images) == 0 {
		return core.Fatal("swapchain images", fmt.Errorf("swapchain has no images"))
	}

	sc.Views = make([]vk.ImageView, 0, len(sc.Images))
	for _, image := range sc.Images {
		view, err := d.CreateImageView(image, sc.ImageFormat.Format)
		if err != nil {
			return err
		}
		sc.Views = append(sc.Views, view)
	}

	if sc.Renderpass, err = RenderpassCreate(d, sc.ImageFormat.Format, sc.Extent, ctx.ClearColor); err != nil {
		return err
	}

	sc.Framebuffers = make([]*VulkanFramebuffer, 0, len(sc.Views))
	for _, view := range sc.Views {
		fb, err := FramebufferCreate(d, sc.Renderpass, sc.Extent.Width, sc.Extent.Height, []vk.ImageView{view})
		if err != nil {
			return err
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}

	builder := NewPipelineBuilder().
		WithVertexShader(ctx.Shaders.Vertex).
		WithFragmentShader(ctx.Shaders.Fragment).
		WithVertexLayout(ctx.Mesh.Layout).
		WithViewport(ViewportForExtent(sc.Extent)).
		WithDescriptorSetLayouts(ctx.DescriptorSetLayout).
		WithRenderPass(sc.Renderpass.Handle).
		WithCullMode(ctx.CullMode).
		WithFrontFace(ctx.FrontFace)
	if sc.Pipeline, err = builder.Build(d); err != nil {
		return err
	}

	count := sc.ImageCount()
	if sc.Uniforms, err = NewUniformRing(d, ctx.DescriptorSetLayout, ctx.UniformSize, count); err != nil {
		return err
	}
	if sc.CommandBuffers, err = AllocateCommandBuffers(d, QueueGraphics, count); err != nil {
		return err
	}
	if sc.Sync, err = NewFrameSync(d, count); err != nil {
		return err
	}
	return sm.recorder.Record(sc)
}

// Recreate drains the device, throws the current generation away and
// builds a new one for the current drawable size.
func (sm *SwapchainManager) Recreate() error {
	ctx := sm.context
	if _, err := sm.waitForDrawableSize(); err != nil {
		return err
	}
	if err := ctx.Driver.WaitIdle(); err != nil {
		return err
	}
	if ctx.Swapchain != nil {
		core.LogDebug("Destroying swapchain %s.", ctx.Swapchain.ID)
		ctx.Swapchain.Destroy(ctx.Driver)
		ctx.Swapchain = nil
	}
	if _, err := sm.Create(); err != nil {
		return err
	}
	sm.recreations++
	return nil
}

// Destroy waits for the device and releases the current generation.
func (sm *SwapchainManager) Destroy() error {
	ctx := sm.context
	if ctx.Swapchain == nil {
		return nil
	}
	err := ctx.Driver.WaitIdle()
	ctx.Swapchain.Destroy(ctx.Driver)
	ctx.Swapchain = nil
	return err
}
