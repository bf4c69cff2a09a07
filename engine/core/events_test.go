package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFireStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	first, second := 0, 0

	a, b := new(int), new(int)
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, a, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		first++
		assert.Equal(t, uint32(640), data.Data.U32[0])
		return true
	}))
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, b, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		second++
		return false
	}))

	ctx := EventContext{}
	ctx.Data.U32[0] = 640
	assert.True(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestEventBusRegistration(t *testing.T) {
	bus := NewEventBus()
	l := new(int)
	noop := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return false }

	assert.True(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, l, noop))
	assert.False(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, l, noop), "duplicate listener")
	assert.False(t, bus.Fire(EVENT_CODE_KEY_PRESSED, nil, EventContext{}), "nothing registered")

	assert.True(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, l))
	assert.False(t, bus.Unregister(EVENT_CODE_APPLICATION_QUIT, l))

	bus.Register(EVENT_CODE_APPLICATION_QUIT, l, noop)
	bus.Shutdown()
	assert.True(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, l, noop))
}
