package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
)

// FindMemoryIndex returns the first memory type allowed by typeFilter whose
// property flags are a superset of flags.
func FindMemoryIndex(types []vk.MemoryPropertyFlags, typeFilter uint32, flags vk.MemoryPropertyFlags) (uint32, error) {
	if index, ok := memoryIndex(types, typeFilter, flags); ok {
		return index, nil
	}
	core.LogWarn("Unable to find suitable memory type!")
	return 0, core.Fatal("find memory type", fmt.Errorf("%w: filter %#x flags %#x", core.ErrNoMemoryType, typeFilter, uint32(flags)))
}

func memoryIndex(types []vk.MemoryPropertyFlags, typeFilter uint32, flags vk.MemoryPropertyFlags) (uint32, bool) {
	for i := 0; i < len(types) && i < 32; i++ {
		// Check each memory type to see if its bit is set to 1.
		if typeFilter&(1<<uint(i)) != 0 && types[i]&flags == flags {
			return uint32(i), true
		}
	}
	return 0, false
}

// findMemoryIndexPreferred tries required|preferred first and falls back to
// required alone. Only a miss on required is reported.
func findMemoryIndexPreferred(types []vk.MemoryPropertyFlags, typeFilter uint32, required, preferred vk.MemoryPropertyFlags) (uint32, vk.MemoryPropertyFlags, error) {
	if preferred != 0 {
		if index, ok := memoryIndex(types, typeFilter, required|preferred); ok {
			return index, types[index], nil
		}
	}
	index, err := FindMemoryIndex(types, typeFilter, required)
	if err != nil {
		return 0, 0, err
	}
	return index, types[index], nil
}

/**
 * @brief A buffer and the memory bound to it.
 */
type DeviceBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags
	/** @brief The property flags of the memory type actually chosen. */
	MemoryFlags vk.MemoryPropertyFlags
}

// NewDeviceBuffer creates a buffer, allocates memory matching required (and
// preferred when the device has it) and binds the two.
func NewDeviceBuffer(d Driver, size vk.DeviceSize, usage vk.BufferUsageFlags, required, preferred vk.MemoryPropertyFlags) (*DeviceBuffer, error) {
	if size == 0 {
		return nil, core.Fatal("create buffer", fmt.Errorf("zero sized buffer"))
	}
	handle, reqs, err := d.CreateBuffer(size, usage)
	if err != nil {
		return nil, err
	}
	buffer := &DeviceBuffer{Handle: handle, Size: size, Usage: usage}

	index, flags, err := findMemoryIndexPreferred(d.MemoryTypes(), reqs.MemoryTypeBits, required, preferred)
	if err != nil {
		buffer.Destroy(d)
		return nil, err
	}
	buffer.MemoryFlags = flags

	memory, err := d.AllocateMemory(reqs.Size, index)
	if err != nil {
		buffer.Destroy(d)
		return nil, err
	}
	buffer.Memory = memory

	if err := d.BindBufferMemory(handle, memory); err != nil {
		buffer.Destroy(d)
		return nil, err
	}
	return buffer, nil
}

func (b *DeviceBuffer) Destroy(d Driver) {
	if b.Handle != nil {
		d.DestroyBuffer(b.Handle)
		b.Handle = nil
	}
	if b.Memory != nil {
		d.FreeMemory(b.Memory)
		b.Memory = nil
	}
	b.Size = 0
}
