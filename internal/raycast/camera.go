package raycast

import "math"

const (
	// DefaultFOV is the horizontal field of view in degrees.
	DefaultFOV = 60.0
	// DefaultAngle faces +Y (down the map).
	DefaultAngle = 90.0
)

// Camera is the viewer's pose in map-cell units. Angle and FOV are degrees,
// 0 = +X, 90 = +Y.
type Camera struct {
	X, Y  float64
	Angle float64
	FOV   float64
}

// NewCamera creates a camera at (x, y) facing angle with the default FOV.
func NewCamera(x, y, angle float64) Camera {
	return Camera{X: x, Y: y, Angle: angle, FOV: DefaultFOV}
}

// Move translates the camera. No collision or bounds checks.
func (c *Camera) Move(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// Turn rotates the camera. The angle accumulates without wrapping.
func (c *Camera) Turn(deltaDeg float64) {
	c.Angle += deltaDeg
}

// Forward returns the delta for moving dist cells along the facing angle.
func (c *Camera) Forward(dist float64) (dx, dy float64) {
	a := c.Angle * math.Pi / 180
	return math.Cos(a) * dist, math.Sin(a) * dist
}

// Strafe returns the delta for moving dist cells to the camera's right.
func (c *Camera) Strafe(dist float64) (dx, dy float64) {
	a := (c.Angle + 90) * math.Pi / 180
	return math.Cos(a) * dist, math.Sin(a) * dist
}

// TryMove applies (dx, dy) only if the destination cell is passable.
func (c *Camera) TryMove(gm *GridMap, dx, dy float64) bool {
	nx, ny := c.X+dx, c.Y+dy
	if nx < 0 || ny < 0 || !gm.IsPassable(int(nx), int(ny)) {
		return false
	}
	c.Move(dx, dy)
	return true
}

// Heading returns the angle wrapped to [0, 360) for display.
func (c *Camera) Heading() float64 {
	h := math.Mod(c.Angle, 360)
	if h < 0 {
		h += 360
	}
	return h
}
