package camera

import (
	"github.com/chewxy/math32"
)

// controllerImpl is the implementation of the Controller interface.
// It keeps spherical coordinates (radius, azimuth, elevation) around the
// camera's target and pushes every change through the camera's public setters,
// so controller input feeds the same dirty-flag path as any other mutation.
type controllerImpl struct {
	cam Camera

	radius    float32
	azimuth   float32 // horizontal angle around the Y axis
	elevation float32 // vertical angle from the horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

// Controller defines the interface for orbit-style camera control.
// Orbit and Dolly convert pointer and scroll deltas into spherical coordinate
// changes around the camera target; Pan slides the target in the view plane.
type Controller interface {
	// Orbit rotates the camera around the target from pointer deltas.
	// Positive dx orbits right; positive dy tilts up. Elevation is clamped
	// away from the poles.
	//
	// Parameters:
	//   - dx: horizontal pointer delta
	//   - dy: vertical pointer delta
	Orbit(dx, dy float32)

	// Dolly moves the camera along the view axis by adjusting the orbit
	// radius. Positive delta moves closer to the target, clamped to the
	// radius bounds.
	//
	// Parameters:
	//   - delta: dolly amount scaled by the zoom speed
	Dolly(delta float32)

	// Pan slides the target (and with it the camera) along the camera's
	// local right and up axes.
	//
	// Parameters:
	//   - dx: rightward pan delta
	//   - dy: upward pan delta
	Pan(dx, dy float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to the radius bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the horizontal orbit angle in radians.
	//
	// Returns:
	//   - float32: the azimuth angle
	Azimuth() float32

	// SetAzimuth sets the horizontal orbit angle in radians.
	//
	// Parameters:
	//   - azimuth: the azimuth angle
	SetAzimuth(azimuth float32)

	// Elevation returns the vertical orbit angle in radians.
	//
	// Returns:
	//   - float32: the elevation angle
	Elevation() float32

	// SetElevation sets the vertical orbit angle in radians, clamped to the
	// elevation bounds.
	//
	// Parameters:
	//   - elevation: the elevation angle
	SetElevation(elevation float32)
}

var _ Controller = &controllerImpl{}

// NewController creates an orbit controller attached to a camera. The initial
// spherical coordinates are derived from the camera's current position and
// target, so attaching a controller does not move the camera.
//
// Parameters:
//   - cam: the camera to drive
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewController(cam Camera, options ...ControllerOption) Controller {
	if cam == nil {
		panic("camera: NewController requires a non-nil camera")
	}
	cc := &controllerImpl{
		cam: cam,

		minRadius:    0.1,
		maxRadius:    1000.0,
		minElevation: -(math32.Pi/2 - 0.1),
		maxElevation: math32.Pi/2 - 0.1,

		mouseSensitivity: 0.005,
		zoomSpeed:        0.5,
		panSpeed:         0.01,
	}
	cc.syncFromCamera()
	for _, option := range options {
		option(cc)
	}
	cc.apply()
	return cc
}

// syncFromCamera derives the spherical coordinates from the camera's current
// position-target offset.
func (cc *controllerImpl) syncFromCamera() {
	p := cc.cam.Position()
	t := cc.cam.Target()
	ox, oy, oz := p[0]-t[0], p[1]-t[1], p[2]-t[2]

	radius := math32.Sqrt(ox*ox + oy*oy + oz*oz)
	if radius < cc.minRadius {
		radius = cc.minRadius
	}
	cc.radius = radius
	cc.azimuth = math32.Atan2(ox, oz)

	sinElev := oy / radius
	if sinElev > 1 {
		sinElev = 1
	}
	if sinElev < -1 {
		sinElev = -1
	}
	cc.elevation = cc.clampElevation(math32.Asin(sinElev))
}

// apply recomputes the camera position from the spherical coordinates and
// pushes it through the camera's public setter.
func (cc *controllerImpl) apply() {
	cosElev := math32.Cos(cc.elevation)
	sinElev := math32.Sin(cc.elevation)
	cosAzim := math32.Cos(cc.azimuth)
	sinAzim := math32.Sin(cc.azimuth)

	t := cc.cam.Target()
	cc.cam.SetPosition(
		t[0]+cc.radius*cosElev*sinAzim,
		t[1]+cc.radius*sinElev,
		t[2]+cc.radius*cosElev*cosAzim,
	)
}

func (cc *controllerImpl) clampRadius(radius float32) float32 {
	if radius < cc.minRadius {
		return cc.minRadius
	}
	if radius > cc.maxRadius {
		return cc.maxRadius
	}
	return radius
}

func (cc *controllerImpl) clampElevation(elevation float32) float32 {
	if elevation < cc.minElevation {
		return cc.minElevation
	}
	if elevation > cc.maxElevation {
		return cc.maxElevation
	}
	return elevation
}

func (cc *controllerImpl) Orbit(dx, dy float32) {
	cc.azimuth += dx * cc.mouseSensitivity
	cc.elevation = cc.clampElevation(cc.elevation + dy*cc.mouseSensitivity)
	cc.apply()
}

func (cc *controllerImpl) Dolly(delta float32) {
	cc.radius = cc.clampRadius(cc.radius - delta*cc.zoomSpeed)
	cc.apply()
}

func (cc *controllerImpl) Pan(dx, dy float32) {
	// The unit offset from target to camera, from the spherical coordinates.
	cosElev := math32.Cos(cc.elevation)
	bx := cosElev * math32.Sin(cc.azimuth)
	by := math32.Sin(cc.elevation)
	bz := cosElev * math32.Cos(cc.azimuth)

	// right = normalize(cross(worldUp, backward)) with worldUp = (0, 1, 0)
	rx, rz := bz, -bx
	rLen := math32.Sqrt(rx*rx + rz*rz)
	if rLen < 1e-8 {
		return
	}
	rx /= rLen
	rz /= rLen

	// up = cross(backward, right)
	ux := by * rz
	uy := bz*rx - bx*rz
	uz := -by * rx

	t := cc.cam.Target()
	offX := (rx*dx + ux*dy) * cc.panSpeed
	offY := (uy * dy) * cc.panSpeed
	offZ := (rz*dx + uz*dy) * cc.panSpeed

	cc.cam.SetTarget(t[0]+offX, t[1]+offY, t[2]+offZ)
	cc.apply()
}

func (cc *controllerImpl) Radius() float32 {
	return cc.radius
}

func (cc *controllerImpl) SetRadius(radius float32) {
	cc.radius = cc.clampRadius(radius)
	cc.apply()
}

func (cc *controllerImpl) Azimuth() float32 {
	return cc.azimuth
}

func (cc *controllerImpl) SetAzimuth(azimuth float32) {
	cc.azimuth = azimuth
	cc.apply()
}

func (cc *controllerImpl) Elevation() float32 {
	return cc.elevation
}

func (cc *controllerImpl) SetElevation(elevation float32) {
	cc.elevation = cc.clampElevation(elevation)
	cc.apply()
}
