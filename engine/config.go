package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

const DefaultConfigPath = "config.toml"

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	StartX uint32 `toml:"start_x"`
	StartY uint32 `toml:"start_y"`
}

type RendererConfig struct {
	Validation         bool       `toml:"validation"`
	RequireDiscreteGPU bool       `toml:"require_discrete_gpu"`
	FenceTimeoutMS     uint32     `toml:"fence_timeout_ms"`
	ClearColor         [4]float32 `toml:"clear_color"`
	// One of "none", "back" or "front".
	CullMode string `toml:"cull_mode"`
	// Winding of front faces, "clockwise" or "counter_clockwise".
	FrontFace      string `toml:"front_face"`
	Mesh           string `toml:"mesh"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
}

type AssetsConfig struct {
	Dir          string `toml:"dir"`
	WatchShaders bool   `toml:"watch_shaders"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "vkframe",
			Width:  800,
			Height: 600,
			StartX: 100,
			StartY: 100,
		},
		Renderer: RendererConfig{
			Validation:     true,
			FenceTimeoutMS: 5000,
			ClearColor:     [4]float32{0, 0, 0.2, 1},
			CullMode:       "none",
			FrontFace:      "clockwise",
			Mesh:           "quad",
			VertexShader:   "PosColor_3DTransMats.vert.spv",
			FragmentShader: "VertexColor.frag.spv",
		},
		Assets: AssetsConfig{
			Dir:          "shaders",
			WatchShaders: true,
		},
		Log: LogConfig{Level: "debug"},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.FenceTimeoutMS == 0 {
		return errors.New("renderer.fence_timeout_ms must be positive")
	}
	if _, err := metadata.MeshByName(c.Renderer.Mesh); err != nil {
		return err
	}
	if _, err := c.CullModeFlags(); err != nil {
		return err
	}
	if _, err := c.FrontFaceValue(); err != nil {
		return err
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		return errors.New("renderer.vertex_shader and renderer.fragment_shader are required")
	}
	return nil
}

func (c *Config) FenceTimeout() time.Duration {
	return time.Duration(c.Renderer.FenceTimeoutMS) * time.Millisecond
}

func (c *Config) CullModeFlags() (vk.CullModeFlags, error) {
	switch strings.ToLower(c.Renderer.CullMode) {
	case "", "none":
		return vk.CullModeFlags(vk.CullModeNone), nil
	case "back":
		return vk.CullModeFlags(vk.CullModeBackBit), nil
	case "front":
		return vk.CullModeFlags(vk.CullModeFrontBit), nil
	}
	return 0, fmt.Errorf("unknown cull mode %q", c.Renderer.CullMode)
}

func (c *Config) FrontFaceValue() (vk.FrontFace, error) {
	switch strings.ToLower(c.Renderer.FrontFace) {
	case "", "clockwise":
		return vk.FrontFaceClockwise, nil
	case "counter_clockwise":
		return vk.FrontFaceCounterClockwise, nil
	}
	return 0, fmt.Errorf("unknown front face %q", c.Renderer.FrontFace)
}
