package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// FrameHook runs once the acquired image's fence has signalled and before
// its command buffer is submitted. It is where per-frame uniform data for
// imageIndex gets written.
type FrameHook func(imageIndex uint32, sc *Swapchain) error

// FrameScheduler drives acquire, wait, submit and present, and rebuilds the
// swapchain when presentation reports it stale.
type FrameScheduler struct {
	context      *VulkanContext
	swapchains   *SwapchainManager
	onFrame      FrameHook
	needRecreate bool
}

func NewFrameScheduler(context *VulkanContext, swapchains *SwapchainManager) *FrameScheduler {
	return &FrameScheduler{context: context, swapchains: swapchains}
}

func (fs *FrameScheduler) OnFrame(hook FrameHook) {
	fs.onFrame = hook
}

// RequestRecreate makes the next frame end with a swapchain rebuild.
func (fs *FrameScheduler) RequestRecreate() {
	fs.needRecreate = true
}

// DrawFrame renders and presents one frame. Stale presentation is handled
// here by rebuilding the swapchain, so a nil error can mean a dropped frame.
// Every returned error is fatal; core.ErrWindowClosed means the window was
// closed while a rebuild waited for a drawable size.
func (fs *FrameScheduler) DrawFrame() error {
	ctx := fs.context
	d := ctx.Driver
	if ctx.Swapchain == nil {
		return core.Fatal("draw frame", fmt.Errorf("no swapchain"))
	}

	imageIndex, ok, err := fs.acquire()
	if err != nil || !ok {
		return err
	}
	sc := ctx.Swapchain
	sync := sc.Sync
	if imageIndex >= sc.ImageCount() {
		return core.Fatal("acquire next image", fmt.Errorf("image index %d out of range [0, %d)", imageIndex, sc.ImageCount()))
	}

	cb := sc.CommandBuffers[imageIndex]
	if !cb.RecordedFor(sc.ID) {
		// Nothing was waited on or reset yet, so dropping the frame is safe.
		err := core.Stale("submit", fmt.Errorf("%w: command buffer %d not recorded for swapchain %s", core.ErrSwapchainBooting, imageIndex, sc.ID))
		core.LogWarn("%s", err)
		return fs.recreate()
	}

	// The previous submission of this image has to be done before its
	// command buffer, semaphores and uniform block are touched.
	fence := sync.InFlight[imageIndex]
	if err := fence.Wait(d, ctx.FenceTimeout); err != nil {
		core.LogError("in-flight fence wait failure on image %d: %s", imageIndex, err)
		return err
	}
	if err := fence.Reset(d); err != nil {
		return err
	}
	sync.Bind(imageIndex)

	if fs.onFrame != nil {
		if err := fs.onFrame(imageIndex, sc); err != nil {
			return err
		}
	}

	result := d.Submit(QueueGraphics, SubmitInfo{
		CommandBuffer: cb.Handle,
		Wait:          sync.ImageAvailable[imageIndex],
		// Colour writes wait until the presentation engine released the image.
		WaitStage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Signal:    sync.RenderFinished[imageIndex],
		Fence:     fence.Handle,
	})
	if result != vk.Success {
		core.LogError("vkQueueSubmit failed with result: %s", VulkanResultString(result, true))
		return resultError("queue submit", result)
	}
	cb.UpdateSubmitted()

	// Give the image back to the swapchain.
	result = d.Present(sc.Handle, imageIndex, sync.RenderFinished[imageIndex])
	ctx.FrameNumber++
	if err := presentError(result); err != nil {
		if !core.IsStale(err) {
			return err
		}
		core.LogDebug("%s", err)
		fs.needRecreate = true
	}

	// Check if the framebuffer has been resized. If so, a new swapchain must be created.
	if ctx.Resized.Consume() {
		fs.needRecreate = true
	}
	if fs.needRecreate {
		return fs.recreate()
	}
	return nil
}

// acquire asks for the next image. An out of date swapchain is rebuilt and
// the acquire tried once more; ok is false when the frame has to be skipped.
func (fs *FrameScheduler) acquire() (imageIndex uint32, ok bool, err error) {
	d := fs.context.Driver
	for attempt := 0; ; attempt++ {
		sc := fs.context.Swapchain
		index, result := d.AcquireNextImage(sc.Handle, vk.MaxUint64, sc.Sync.AcquireSemaphore())
		switch result {
		case vk.Success:
			return index, true, nil
		case vk.Suboptimal:
			// The image is usable, rebuild after presenting it.
			fs.needRecreate = true
			return index, true, nil
		case vk.ErrorOutOfDate:
			if attempt > 0 {
				core.LogDebug("Swapchain still out of date after recreation, skipping frame.")
				return 0, false, nil
			}
			if err := fs.recreate(); err != nil {
				return 0, false, err
			}
		default:
			return 0, false, resultError("acquire next image", result)
		}
	}
}

func (fs *FrameScheduler) recreate() error {
	fs.needRecreate = false
	if err := fs.swapchains.Recreate(); err != nil {
		core.LogError("failed to recreate the swapchain: %s", err)
		return err
	}
	return nil
}
