package engine

import (
	"context"
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkframe/engine/assets"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/platform"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// windowSystem is the part of the platform the run loop drives.
type windowSystem interface {
	PumpMessages() bool
	WaitEvents()
	ToggleFullscreen()
	Close()
	Shutdown() error
}

type shaderSource interface {
	Initialize(dir string, watch bool) error
	LoadShaders(vertexPath, fragmentPath string) (vertex, fragment []byte, err error)
	PollChanges() []string
	Resolve(path string) string
	Shutdown() error
}

type frameRenderer interface {
	DrawFrame() error
	Resized(width, height uint32)
	ReloadShaders(shaders vulkan.ShaderSet) error
	Shutdown() error
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *Config
	isRunning    bool
	isSuspended  bool

	events  *core.EventBus
	input   *core.Input
	clock   *core.Clock
	metrics *core.Metrics

	// platform is only needed to start the window and build the renderer;
	// the loop goes through window.
	platform     *platform.Platform
	window       windowSystem
	assetManager shaderSource
	renderer     frameRenderer

	width      uint32
	height     uint32
	lastTime   float64
	frameDelta float64
	// Set by event handlers, returned by the loop.
	fatal error
}

func New(g *Game, cfg *Config) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and its application config are required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	events := core.NewEventBus()
	input := core.NewInput(events)
	p := platform.New(events, input)

	return &Engine{
		currentStage: EngineStageBootComplete,
		gameInstance: g,
		config:       cfg,
		events:       events,
		input:        input,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		platform:     p,
		window:       p,
		assetManager: assets.NewAssetManager(),
		isRunning:    true,
		isSuspended:  false,
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	e.registerEvents()

	w := e.config.Window
	if err := e.platform.Startup(w.Title, w.StartX, w.StartY, w.Width, w.Height); err != nil {
		return err
	}
	e.width, e.height = e.platform.FramebufferSize()

	if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.WatchShaders); err != nil {
		return err
	}
	vertex, fragment, err := e.assetManager.LoadShaders(e.config.Renderer.VertexShader, e.config.Renderer.FragmentShader)
	if err != nil {
		return core.Fatal("load shaders", err)
	}
	mesh, err := metadata.MeshByName(e.config.Renderer.Mesh)
	if err != nil {
		return core.Fatal("load mesh", err)
	}
	cull, err := e.config.CullModeFlags()
	if err != nil {
		return core.Fatal("cull mode", err)
	}
	frontFace, err := e.config.FrontFaceValue()
	if err != nil {
		return core.Fatal("front face", err)
	}

	renderer := vulkan.New(e.platform, vulkan.RendererConfig{
		ApplicationName:    e.gameInstance.ApplicationConfig.Name,
		Validation:         e.config.Renderer.Validation,
		RequireDiscreteGPU: e.config.Renderer.RequireDiscreteGPU,
		FenceTimeout:       e.config.FenceTimeout(),
		ClearColor:         e.config.Renderer.ClearColor,
		CullMode:           cull,
		FrontFace:          frontFace,
		Mesh:               mesh,
		Shaders:            vulkan.ShaderSet{Vertex: vertex, Fragment: fragment},
		UniformSize:        e.gameInstance.ApplicationConfig.UniformSize,
	})
	renderer.OnUniforms(e.uniforms)
	if err := renderer.Initialize(); err != nil {
		return err
	}
	e.renderer = renderer

	if g := e.gameInstance; g.FnInitialize != nil {
		if err := g.FnInitialize(); err != nil {
			return err
		}
	}
	if g := e.gameInstance; g.FnOnResize != nil {
		if err := g.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives frames until the window closes, ctx is cancelled or a fatal
// error occurs. A nil return is a clean exit.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("Interrupted, shutting down.")
			return nil
		default:
		}
		if err := e.tick(); err != nil {
			return err
		}
	}
	return nil
}

// tick runs one iteration of the loop.
func (e *Engine) tick() error {
	if !e.window.PumpMessages() {
		e.isRunning = false
		return nil
	}
	e.pollShaderChanges()
	e.handleInput()
	if e.fatal != nil {
		return e.fatal
	}
	if !e.isRunning {
		return nil
	}

	if e.isSuspended {
		// Minimized: nothing to draw until the next window event.
		e.window.WaitEvents()
		return nil
	}

	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	e.frameDelta = delta

	if g := e.gameInstance; g.FnUpdate != nil {
		if err := g.FnUpdate(delta); err != nil {
			core.LogFatal("Game update failed, shutting down.")
			return err
		}
	}

	if err := e.renderer.DrawFrame(); err != nil {
		if errors.Is(err, core.ErrWindowClosed) {
			// Closed while minimized, during a swapchain rebuild.
			core.LogInfo("Window closed, shutting down.")
			e.isRunning = false
			return nil
		}
		core.LogFatal("Draw frame failed: %s", err)
		return err
	}

	if e.metrics.Update(delta) {
		core.LogDebug("FPS: %.0f, frame time: %.3fms", e.metrics.FPS(), e.metrics.FrameTime())
	}

	// NOTE: Input update/state copying should always be handled
	// after any input should be recorded; I.E. before this line.
	e.input.Update()
	e.lastTime = currentTime
	return nil
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageUninitialized {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if g := e.gameInstance; g.FnShutdown != nil {
		errs = append(errs, g.FnShutdown())
	}
	if e.renderer != nil {
		errs = append(errs, e.renderer.Shutdown())
		e.renderer = nil
	}
	errs = append(errs, e.assetManager.Shutdown())
	errs = append(errs, e.window.Shutdown())
	e.events.Shutdown()

	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) registerEvents() {
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_SHADER_CHANGED, e, e.onShaderChanged)
}

func (e *Engine) handleInput() {
	if e.input.HotPress(core.KEY_ESCAPE) {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return
	}
	if e.input.HotPress(core.KEY_F11) {
		e.window.ToggleFullscreen()
	}
}

// pollShaderChanges turns files reported by the watcher into events on the
// loop goroutine.
func (e *Engine) pollShaderChanges() {
	for _, path := range e.assetManager.PollChanges() {
		ctx := core.EventContext{}
		ctx.Data.C[0] = path
		e.events.Fire(core.EVENT_CODE_SHADER_CHANGED, e, ctx)
	}
}

// uniforms bridges the renderer's per-frame hook to the game's render hook.
func (e *Engine) uniforms(imageIndex uint32, extent vk.Extent2D) ([]byte, error) {
	if e.gameInstance.FnRender == nil {
		return nil, nil
	}
	return e.gameInstance.FnRender(&FrameInfo{
		ImageIndex: imageIndex,
		Width:      extent.Width,
		Height:     extent.Height,
		DeltaTime:  e.frameDelta,
		Elapsed:    e.clock.Elapsed(),
	})
}

func (e *Engine) onQuit(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning = false
	e.window.Close()
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	width, height := data.Data.U32[0], data.Data.U32[1]
	// Check if different. If so, trigger a resize.
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if g := e.gameInstance; g.FnOnResize != nil {
		if err := g.FnOnResize(width, height); err != nil {
			core.LogError("game resize: %s", err)
		}
	}
	if e.renderer != nil {
		e.renderer.Resized(width, height)
	}
	return false
}

func (e *Engine) onShaderChanged(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	path := data.Data.C[0]
	vertexPath := e.assetManager.Resolve(e.config.Renderer.VertexShader)
	fragmentPath := e.assetManager.Resolve(e.config.Renderer.FragmentShader)
	if path != vertexPath && path != fragmentPath {
		return false
	}
	if e.renderer == nil {
		return false
	}

	core.LogInfo("Shader %s changed, reloading.", path)
	vertex, fragment, err := e.assetManager.LoadShaders(vertexPath, fragmentPath)
	if err != nil {
		// Most likely a half-written file; the next write retries.
		core.LogWarn("shader reload skipped: %s", err)
		return true
	}
	err = e.renderer.ReloadShaders(vulkan.ShaderSet{Vertex: vertex, Fragment: fragment})
	switch {
	case err == nil:
	case errors.Is(err, core.ErrShaderRejected):
		core.LogError("%s", err)
	default:
		e.fatal = fmt.Errorf("shader reload: %w", err)
	}
	return true
}
