package components

import (
	"github.com/spaghettifunk/vkframe/engine/math"
)

// 89 degrees, to avoid gimbal lock at the poles.
const pitchLimit float32 = 1.55334306

const (
	minDistance float32 = 0.1
	maxDistance float32 = 1000
)

/**
 * @brief An orbit camera looking at a target from a distance. The view
 * matrix is rebuilt lazily after any change.
 */
type Camera struct {
	Target math.Vec3
	/** @brief Distance from the target. Use Zoom so the view is recalculated. */
	Distance float32
	/** @brief Rotation around the target: X is pitch, Y is yaw, in radians. */
	EulerRotation math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	viewMatrix math.Mat4
}

func NewCamera(target math.Vec3, distance float32) *Camera {
	camera := &Camera{}
	camera.Reset()
	camera.Target = target
	camera.Distance = math.Clamp(distance, minDistance, maxDistance)
	return camera
}

func (c *Camera) Reset() {
	c.Target = math.NewVec3Zero()
	c.Distance = 1
	c.EulerRotation = math.NewVec3Zero()
	c.IsDirty = true
	c.viewMatrix = math.NewMat4Identity()
}

// Position is where the eye sits: Distance along +Z from the target,
// rotated by pitch then yaw.
func (c *Camera) Position() math.Vec3 {
	pitch, yaw := c.EulerRotation.X, c.EulerRotation.Y
	offset := math.NewVec3(
		math.Cos(pitch)*math.Sin(yaw),
		math.Sin(pitch),
		math.Cos(pitch)*math.Cos(yaw),
	)
	return c.Target.Add(offset.MulScalar(c.Distance))
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.viewMatrix = math.NewMat4LookAt(c.Position(), c.Target, math.NewVec3Up())
		c.IsDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	if c.EulerRotation.Y > math.K_PI_2 {
		c.EulerRotation.Y -= math.K_PI_2
	} else if c.EulerRotation.Y < -math.K_PI_2 {
		c.EulerRotation.Y += math.K_PI_2
	}
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X += amount

	// Clamp to avoid Gimbal lock.
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X, -pitchLimit, pitchLimit)

	c.IsDirty = true
}

// Zoom moves the eye towards the target by amount.
func (c *Camera) Zoom(amount float32) {
	c.Distance = math.Clamp(c.Distance-amount, minDistance, maxDistance)
	c.IsDirty = true
}
