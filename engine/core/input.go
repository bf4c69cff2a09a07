package core

// Key code definitions
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_1         KeyCode = 0x31
	KEY_2         KeyCode = 0x32
	KEY_3         KeyCode = 0x33
	KEY_A         KeyCode = 0x41
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_F         KeyCode = 0x46
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_W         KeyCode = 0x57
	KEY_F11       KeyCode = 0x7A
	KEY_LSHIFT    KeyCode = 0xA0
	KEY_RSHIFT    KeyCode = 0xA1
	KEY_LCONTROL  KeyCode = 0xA2
	KEY_RCONTROL  KeyCode = 0xA3
	KEY_LMENU     KeyCode = 0xA4
	KEY_RMENU     KeyCode = 0xA5
	KEY_SEMICOLON KeyCode = 0xBA
	KEY_GRAVE     KeyCode = 0xC0
	KEYS_MAX_KEYS KeyCode = 0xFF
)

// InputState is the per-frame phase of a key.
type InputState uint8

const (
	INPUT_HOT_PRESS   InputState = 1 << 0
	INPUT_ACTIVE      InputState = 1 << 1
	INPUT_HOT_RELEASE InputState = 1 << 2
	INPUT_INACTIVE    InputState = 1 << 3
)

type keyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// Input tracks keyboard state across frames. Key events are applied with
// ProcessKey as the platform reports them; Update closes the frame.
type Input struct {
	events           *EventBus
	keyboardCurrent  keyboardState
	keyboardPrevious keyboardState
}

func NewInput(events *EventBus) *Input {
	return &Input{events: events}
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.keyboardCurrent.Keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.keyboardCurrent.Keys[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return in.keyboardPrevious.Keys[key]
}

func (in *Input) WasKeyUp(key KeyCode) bool {
	return !in.keyboardPrevious.Keys[key]
}

// State folds the previous and current frame into one of the four phases.
func (in *Input) State(key KeyCode) InputState {
	was, is := in.keyboardPrevious.Keys[key], in.keyboardCurrent.Keys[key]
	switch {
	case !was && is:
		return INPUT_HOT_PRESS
	case was && is:
		return INPUT_ACTIVE
	case was && !is:
		return INPUT_HOT_RELEASE
	default:
		return INPUT_INACTIVE
	}
}

// HotPress returns true if the key was pressed this frame.
func (in *Input) HotPress(key KeyCode) bool {
	return in.State(key) == INPUT_HOT_PRESS
}

// HotRelease returns true if the key was released this frame.
func (in *Input) HotRelease(key KeyCode) bool {
	return in.State(key) == INPUT_HOT_RELEASE
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	// Only handle this if the state actually changed.
	if in.keyboardCurrent.Keys[key] == pressed {
		return
	}
	in.keyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	if in.events != nil {
		ctx := EventContext{}
		ctx.Data.U16[0] = uint16(key)
		in.events.Fire(code, in, ctx)
	}
}

// Update copies the current state into the previous one. Call it last in a frame.
func (in *Input) Update() {
	in.keyboardPrevious = in.keyboardCurrent
}

// Consumable is a flag that reads as set exactly once after each Set.
type Consumable struct {
	value bool
}

func (c *Consumable) Set() {
	c.value = true
}

func (c *Consumable) Consume() bool {
	v := c.value
	c.value = false
	return v
}

func (c *Consumable) Peek() bool {
	return c.value
}
