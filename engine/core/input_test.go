package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputStateMachine(t *testing.T) {
	in := NewInput(nil)
	assert.Equal(t, INPUT_INACTIVE, in.State(KEY_ESCAPE))

	in.ProcessKey(KEY_ESCAPE, true)
	assert.Equal(t, INPUT_HOT_PRESS, in.State(KEY_ESCAPE))
	assert.True(t, in.HotPress(KEY_ESCAPE))
	in.Update()

	assert.Equal(t, INPUT_ACTIVE, in.State(KEY_ESCAPE))
	assert.True(t, in.IsKeyDown(KEY_ESCAPE))
	assert.True(t, in.WasKeyDown(KEY_ESCAPE))
	in.Update()

	in.ProcessKey(KEY_ESCAPE, false)
	assert.True(t, in.HotRelease(KEY_ESCAPE))
	in.Update()
	assert.Equal(t, INPUT_INACTIVE, in.State(KEY_ESCAPE))
	assert.True(t, in.WasKeyUp(KEY_ESCAPE))
}

func TestInputFiresOnChangeOnly(t *testing.T) {
	bus := NewEventBus()
	in := NewInput(bus)
	var pressed []uint16
	bus.Register(EVENT_CODE_KEY_PRESSED, t, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		pressed = append(pressed, data.Data.U16[0])
		return true
	})

	in.ProcessKey(KEY_F11, true)
	in.ProcessKey(KEY_F11, true)
	in.ProcessKey(KEYS_MAX_KEYS, true)

	assert.Equal(t, []uint16{uint16(KEY_F11)}, pressed)
}

func TestConsumable(t *testing.T) {
	var c Consumable
	assert.False(t, c.Consume())
	c.Set()
	c.Set()
	assert.True(t, c.Peek())
	assert.True(t, c.Consume())
	assert.False(t, c.Consume())
}
