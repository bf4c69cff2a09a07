package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// ResourceUploader copies host data into device-local buffers through a
// host-visible staging buffer on the transfer queue.
type ResourceUploader struct {
	driver    Driver
	timeoutNs uint64
}

func NewResourceUploader(d Driver, timeoutNs uint64) *ResourceUploader {
	return &ResourceUploader{driver: d, timeoutNs: timeoutNs}
}

// Upload returns a device-local buffer with usage|TransferDst holding a
// copy of data. The staging buffer is released only after the transfer
// fence has signalled; on a timeout it is leaked rather than freed under
// the device.
func (u *ResourceUploader) Upload(usage vk.BufferUsageFlags, data []byte) (*DeviceBuffer, error) {
	d := u.driver
	size := vk.DeviceSize(len(data))
	if size == 0 {
		return nil, core.Fatal("upload", fmt.Errorf("no data"))
	}

	staging, err := NewDeviceBuffer(d, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 0)
	if err != nil {
		core.LogError("failed to create staging buffer of %d bytes", size)
		return nil, err
	}
	if err := d.WriteMemory(staging.Memory, 0, data); err != nil {
		staging.Destroy(d)
		return nil, err
	}

	dst, err := NewDeviceBuffer(d, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 0)
	if err != nil {
		staging.Destroy(d)
		return nil, err
	}

	if err := u.copyBuffer(staging, dst, size); err != nil {
		if k, ok := core.KindOf(err); ok && k == core.KindTimeout {
			// The copy may still be in flight: neither buffer can go yet.
			core.LogError("staging transfer of %d bytes timed out, leaking staging buffer", size)
			return nil, err
		}
		dst.Destroy(d)
		staging.Destroy(d)
		return nil, err
	}

	staging.Destroy(d)
	core.LogDebug("uploaded %d bytes to device-local buffer", size)
	return dst, nil
}

func (u *ResourceUploader) copyBuffer(src, dst *DeviceBuffer, size vk.DeviceSize) error {
	d := u.driver
	fence, err := NewFence(d, false)
	if err != nil {
		return err
	}

	cb, err := AllocateAndBeginSingleUse(d, QueueTransfer)
	if err != nil {
		fence.Destroy(d)
		return err
	}
	d.CmdCopyBuffer(cb.Handle, src.Handle, dst.Handle, size)

	if err := cb.EndSingleUse(d, fence, u.timeoutNs); err != nil {
		if k, ok := core.KindOf(err); !ok || k != core.KindTimeout {
			fence.Destroy(d)
		}
		return err
	}
	fence.Destroy(d)
	return nil
}
