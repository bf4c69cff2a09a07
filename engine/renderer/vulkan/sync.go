package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// FrameSync holds the per-image synchronization objects of a swapchain
// generation.
//
// Acquisition signals a semaphore before the image index is known, so one
// spare semaphore is kept: acquire signals the spare, and once the fence of
// the acquired image has signalled (so the previous wait on that image's
// semaphore is done) the spare and ImageAvailable[i] trade places.
type FrameSync struct {
	// Created signaled so the first wait on each image returns at once.
	InFlight       []*VulkanFence
	ImageAvailable []vk.Semaphore
	RenderFinished []vk.Semaphore
	spare          vk.Semaphore
}

func NewFrameSync(d Driver, imageCount uint32) (*FrameSync, error) {
	fs := &FrameSync{
		InFlight:       make([]*VulkanFence, 0, imageCount),
		ImageAvailable: make([]vk.Semaphore, 0, imageCount),
		RenderFinished: make([]vk.Semaphore, 0, imageCount),
	}
	for i := uint32(0); i < imageCount; i++ {
		available, err := d.CreateSemaphore()
		if err != nil {
			fs.Destroy(d)
			return nil, err
		}
		fs.ImageAvailable = append(fs.ImageAvailable, available)

		finished, err := d.CreateSemaphore()
		if err != nil {
			fs.Destroy(d)
			return nil, err
		}
		fs.RenderFinished = append(fs.RenderFinished, finished)

		fence, err := NewFence(d, true)
		if err != nil {
			fs.Destroy(d)
			return nil, err
		}
		fs.InFlight = append(fs.InFlight, fence)
	}

	spare, err := d.CreateSemaphore()
	if err != nil {
		fs.Destroy(d)
		return nil, err
	}
	fs.spare = spare

	core.LogDebug("Sync objects created for %d images.", imageCount)
	return fs, nil
}

// AcquireSemaphore is the semaphore the next acquire must signal.
func (fs *FrameSync) AcquireSemaphore() vk.Semaphore {
	return fs.spare
}

// Bind makes the semaphore signalled by the last acquire the
// image-available semaphore of imageIndex. Call it only after the fence of
// imageIndex has been waited on.
func (fs *FrameSync) Bind(imageIndex uint32) {
	fs.spare, fs.ImageAvailable[imageIndex] = fs.ImageAvailable[imageIndex], fs.spare
}

func (fs *FrameSync) Destroy(d Driver) {
	for _, s := range fs.ImageAvailable {
		d.DestroySemaphore(s)
	}
	for _, s := range fs.RenderFinished {
		d.DestroySemaphore(s)
	}
	for _, f := range fs.InFlight {
		f.Destroy(d)
	}
	if fs.spare != vk.NullSemaphore {
		d.DestroySemaphore(fs.spare)
		fs.spare = vk.NullSemaphore
	}
	fs.ImageAvailable = nil
	fs.RenderFinished = nil
	fs.InFlight = nil
}
