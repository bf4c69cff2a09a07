package vulkan

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockPoolReturnsCallError(t *testing.T) {
	locks := NewVulkanLockPool()
	boom := errors.New("boom")
	assert.ErrorIs(t, locks.SafeCall(MemoryManagement, func() error { return boom }), boom)
	assert.NoError(t, locks.SafeQueueCall(7, func() error { return nil }))
}

func TestLockPoolSerializesQueueFamily(t *testing.T) {
	locks := NewVulkanLockPool()
	locks.SetQueueFamily(0)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locks.SafeQueueCall(0, func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, counter)
}
