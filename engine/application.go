package engine

// ApplicationConfig is what a game declares about itself. Window and
// renderer settings come from Config.
type ApplicationConfig struct {
	// The application name reported to the Vulkan driver.
	Name string
	// Size in bytes of the uniform block returned by the render hook,
	// metadata.TransMatsSize when zero.
	UniformSize uint64
}
