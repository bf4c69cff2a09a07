package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vkframe/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Queue whose pool the buffer came from.
	Queue QueueKind
	// Command buffer state.
	State VulkanCommandBufferState
	// Swapchain generation the recorded commands target. Zero for buffers
	// not tied to a swapchain.
	Generation uuid.UUID
}

// RecordedFor reports whether the buffer holds finished commands for the
// swapchain generation id.
func (v *VulkanCommandBuffer) RecordedFor(id uuid.UUID) bool {
	if v.Handle == nil || v.Generation != id {
		return false
	}
	return v.State == COMMAND_BUFFER_STATE_RECORDING_ENDED || v.State == COMMAND_BUFFER_STATE_SUBMITTED
}

// AllocateCommandBuffers allocates count primary command buffers from the
// pool belonging to queue.
func AllocateCommandBuffers(d Driver, queue QueueKind, count uint32) ([]*VulkanCommandBuffer, error) {
	handles, err := d.AllocateCommandBuffers(queue, count)
	if err != nil {
		core.LogError("failed to allocate %d command buffers on the %s queue", count, queue)
		return nil, err
	}
	out := make([]*VulkanCommandBuffer, len(handles))
	for i := range handles {
		out[i] = &VulkanCommandBuffer{
			Handle: handles[i],
			Queue:  queue,
			State:  COMMAND_BUFFER_STATE_READY,
		}
	}
	return out, nil
}

// FreeCommandBuffers returns every allocated buffer to its pool.
func FreeCommandBuffers(d Driver, buffers []*VulkanCommandBuffer) {
	for _, cb := range buffers {
		if cb != nil {
			cb.Free(d)
		}
	}
}

func (v *VulkanCommandBuffer) Free(d Driver) {
	if v.Handle != nil {
		d.FreeCommandBuffers(v.Queue, []vk.CommandBuffer{v.Handle})
	}
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
	v.Generation = uuid.Nil
}

func (v *VulkanCommandBuffer) Begin(d Driver, isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	var flags vk.CommandBufferUsageFlags
	if isSingleUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := d.BeginCommandBuffer(v.Handle, flags); err != nil {
		core.LogError("failed to begin command buffer")
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End(d Driver) error {
	if err := d.EndCommandBuffer(v.Handle); err != nil {
		core.LogError("failed to end command buffer")
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

/**
 * Allocates and begins recording a one-time-submit command buffer on queue.
 */
func AllocateAndBeginSingleUse(d Driver, queue QueueKind) (*VulkanCommandBuffer, error) {
	buffers, err := AllocateCommandBuffers(d, queue, 1)
	if err != nil {
		return nil, err
	}
	cb := buffers[0]
	if err := cb.Begin(d, true, false, false); err != nil {
		cb.Free(d)
		return nil, err
	}
	return cb, nil
}

/**
 * Ends recording, submits to the buffer's queue signalling fence, waits for
 * the fence and frees the command buffer. The buffer is kept when the wait
 * does not complete since the device may still be reading it.
 */
func (v *VulkanCommandBuffer) EndSingleUse(d Driver, fence *VulkanFence, timeoutNs uint64) error {
	// End the command buffer.
	if err := v.End(d); err != nil {
		return err
	}

	// Submit the queue
	if result := d.Submit(v.Queue, SubmitInfo{CommandBuffer: v.Handle, Fence: fence.Handle}); result != vk.Success {
		v.Free(d)
		return core.TransferFailed("single use submit", fmt.Errorf("%s queue rejected submission: %s", v.Queue, VulkanResultString(result, false)))
	}
	v.UpdateSubmitted()

	// Wait for it to finish
	if err := fence.Wait(d, timeoutNs); err != nil {
		return err
	}

	// Free the command buffer.
	v.Free(d)
	return nil
}
