package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestUploadCopiesIntoDeviceLocalBuffer(t *testing.T) {
	d := newFakeDriver()
	data := uploadData(100)

	buffer, err := NewResourceUploader(d, 1e9).Upload(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), data)
	require.NoError(t, err)

	got, err := d.ReadMemory(buffer.Memory, 0, vk.DeviceSize(len(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	assert.Equal(t, vk.DeviceSize(100), buffer.Size)
	assert.Equal(t, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), buffer.MemoryFlags)
	usage := d.buffers[buffer.Handle].usage
	assert.NotZero(t, usage&vk.BufferUsageFlags(vk.BufferUsageTransferDstBit))
	assert.NotZero(t, usage&vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))

	require.Len(t, d.submissions, 1)
	assert.Equal(t, QueueTransfer, d.submissions[0].queue)
	assert.Empty(t, d.violations)
}

func TestUploadReleasesStagingAfterTransfer(t *testing.T) {
	d := newFakeDriver()
	buffer, err := NewResourceUploader(d, 1e9).Upload(vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), uploadData(64))
	require.NoError(t, err)

	signalled := indexOf(d.events, "fence-signalled", false)
	require.NotEqual(t, -1, signalled)
	assert.Greater(t, indexOf(d.events, "destroy:buffer", false), signalled)
	assert.Greater(t, indexOf(d.events, "destroy:command-buffer", false), signalled)

	assert.Equal(t, 1, d.liveCount("buffer"))
	assert.Equal(t, 1, d.liveCount("memory"))
	assert.Zero(t, d.liveCount("fence"))
	assert.Zero(t, d.liveCount("command-buffer"))
	assert.True(t, d.isLive(unsafe.Pointer(buffer.Handle)))
}

func TestUploadTimeoutKeepsInFlightResources(t *testing.T) {
	d := newFakeDriver()
	d.waitResults = []vk.Result{vk.Timeout}

	buffer, err := NewResourceUploader(d, 1000).Upload(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), uploadData(32))
	require.Error(t, err)
	assert.Nil(t, buffer)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindTimeout, kind)

	// The copy may still be running, so nothing it touches is released.
	assert.Equal(t, 2, d.liveCount("buffer"))
	assert.Equal(t, 2, d.liveCount("memory"))
	assert.Equal(t, 1, d.liveCount("fence"))
	assert.Equal(t, 1, d.liveCount("command-buffer"))
}

func TestUploadTransferSubmitFailure(t *testing.T) {
	d := newFakeDriver()
	d.submitResults[QueueTransfer] = []vk.Result{vk.ErrorDeviceLost}

	_, err := NewResourceUploader(d, 1e9).Upload(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), uploadData(32))
	require.Error(t, err)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindTransfer, kind)

	for _, kind := range []string{"buffer", "memory", "fence", "command-buffer"} {
		assert.Zero(t, d.liveCount(kind), kind)
	}
	assert.Empty(t, d.violations)
}

func TestUploadRejectsEmptyData(t *testing.T) {
	d := newFakeDriver()
	_, err := NewResourceUploader(d, 1e9).Upload(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), nil)
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))
	assert.Empty(t, d.live)
}
