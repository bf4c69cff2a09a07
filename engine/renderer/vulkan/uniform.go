package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/math"
)

// UniformBlockOffsets lays count blocks of dataSize bytes out back to back,
// each starting on a multiple of alignment.
func UniformBlockOffsets(alignment, dataSize uint64, count uint32) (stride uint64, offsets []uint64) {
	if alignment == 0 {
		alignment = 1
	}
	stride = math.AlignUp(dataSize, alignment)
	offsets = make([]uint64, count)
	for i := range offsets {
		offsets[i] = uint64(i) * stride
	}
	return stride, offsets
}

/**
 * @brief One uniform buffer split into a block per swapchain image, with a
 * descriptor set pointing at each block.
 */
type UniformRing struct {
	Buffer         *DeviceBuffer
	BlockSize      uint64
	Stride         uint64
	Offsets        []uint64
	DescriptorPool vk.DescriptorPool
	DescriptorSets []vk.DescriptorSet
}

// NewUniformRing allocates count blocks of dataSize bytes. The memory is
// host-visible so that each frame can rewrite its block, and device-local
// when the device has such a type.
func NewUniformRing(d Driver, layout vk.DescriptorSetLayout, dataSize uint64, count uint32) (*UniformRing, error) {
	if dataSize == 0 || count == 0 {
		return nil, core.Fatal("uniform ring", fmt.Errorf("%d blocks of %d bytes", count, dataSize))
	}
	ring := &UniformRing{BlockSize: dataSize}
	ring.Stride, ring.Offsets = UniformBlockOffsets(d.MinUniformBufferOffsetAlignment(), dataSize, count)

	buffer, err := NewDeviceBuffer(d, vk.DeviceSize(ring.Stride*uint64(count)),
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	ring.Buffer = buffer

	pool, err := d.CreateDescriptorPool(count, []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeUniformBuffer,
		DescriptorCount: count,
	}})
	if err != nil {
		ring.Destroy(d)
		return nil, err
	}
	ring.DescriptorPool = pool

	sets, err := d.AllocateDescriptorSets(pool, layout, count)
	if err != nil {
		ring.Destroy(d)
		return nil, err
	}
	ring.DescriptorSets = sets

	writes := make([]vk.WriteDescriptorSet, count)
	for i := range writes {
		writes[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          sets[i],
			DstBinding:      0,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: buffer.Handle,
				Offset: vk.DeviceSize(ring.Offsets[i]),
				Range:  vk.DeviceSize(dataSize),
			}},
		}
	}
	d.UpdateDescriptorSets(writes)

	core.LogDebug("uniform ring: %d blocks, stride %d", count, ring.Stride)
	return ring, nil
}

func (r *UniformRing) Count() uint32 {
	return uint32(len(r.Offsets))
}

// Write replaces the contents of block index. Only call it once the fence
// guarding that image has signalled.
func (r *UniformRing) Write(d Driver, index uint32, data []byte) error {
	if int(index) >= len(r.Offsets) {
		return fmt.Errorf("uniform block %d out of range [0, %d)", index, len(r.Offsets))
	}
	if uint64(len(data)) > r.BlockSize {
		return fmt.Errorf("uniform write of %d bytes into a %d byte block", len(data), r.BlockSize)
	}
	return d.WriteMemory(r.Buffer.Memory, vk.DeviceSize(r.Offsets[index]), data)
}

// Destroy frees the descriptor pool, which takes the sets with it, and the
// buffer.
func (r *UniformRing) Destroy(d Driver) {
	if r.DescriptorPool != nil {
		d.DestroyDescriptorPool(r.DescriptorPool)
		r.DescriptorPool = nil
	}
	r.DescriptorSets = nil
	if r.Buffer != nil {
		r.Buffer.Destroy(d)
		r.Buffer = nil
	}
}
