package testbed

import (
	"github.com/spaghettifunk/vkframe/engine"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/math"
	"github.com/spaghettifunk/vkframe/engine/renderer/components"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	// Radians per second around Z.
	spinSpeed float32
	// Radians per second the camera orbits the quad.
	orbitSpeed float32
	angle      float32
	camera     *components.Camera
	frames     uint64
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:        "vkframe testbed",
				UniformSize: metadata.TransMatsSize,
			},
			State: &gameState{
				spinSpeed:  math.DegToRad(90),
				orbitSpeed: math.DegToRad(10),
				camera:     components.NewCamera(math.NewVec3Zero(), 3),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	s.angle += s.spinSpeed * float32(deltaTime)
	if s.angle > math.K_PI_2 {
		s.angle -= math.K_PI_2
	}
	s.camera.Yaw(s.orbitSpeed * float32(deltaTime))
	return nil
}

// Render builds the model/view/projection block for the frame.
func (g *TestGame) Render(frame *engine.FrameInfo) ([]byte, error) {
	s := g.state()
	s.frames++
	return g.transforms(frame.Width, frame.Height).Bytes(), nil
}

func (g *TestGame) transforms(width, height uint32) metadata.TransMats {
	s := g.state()
	aspect := float32(1)
	if height != 0 {
		aspect = float32(width) / float32(height)
	}
	return metadata.TransMats{
		Model: math.NewMat4EulerZ(s.angle),
		View:  s.camera.GetView(),
		Proj:  math.NewMat4Perspective(math.DegToRad(45), aspect, 0.1, 100).FlipY(),
	}
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	core.LogDebug("testbed viewport %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shutting down after %d frames", g.state().frames)
	return nil
}
