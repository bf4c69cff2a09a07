package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

/** @brief Describes the frame the render hook is preparing. */
type FrameInfo struct {
	// Swapchain image the frame draws into.
	ImageIndex uint32
	Width      uint32
	Height     uint32
	DeltaTime  float64
	// Seconds since the engine started running.
	Elapsed float64
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render returns the uniform block for the frame, or nil to keep the
// previous contents of the image's slot.
type Render func(frame *FrameInfo) ([]byte, error)
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
