package camera

// ControllerOption is a functional option for configuring a Controller via NewController.
type ControllerOption func(*controllerImpl)

// WithRadius is an option builder that sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - ControllerOption: a function that applies the radius option to a controller
func WithRadius(radius float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.radius = cc.clampRadius(radius)
	}
}

// WithAzimuth is an option builder that sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - ControllerOption: a function that applies the azimuth option to a controller
func WithAzimuth(azimuth float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation is an option builder that sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians
//
// Returns:
//   - ControllerOption: a function that applies the elevation option to a controller
func WithElevation(elevation float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.elevation = cc.clampElevation(elevation)
	}
}

// WithRadiusLimits is an option builder that sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: minimum dolly distance
//   - max: maximum dolly distance
//
// Returns:
//   - ControllerOption: a function that applies the radius limit option to a controller
func WithRadiusLimits(min, max float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
		cc.radius = cc.clampRadius(cc.radius)
	}
}

// WithElevationLimits is an option builder that sets the minimum and maximum elevation angle.
//
// Parameters:
//   - min: minimum elevation in radians
//   - max: maximum elevation in radians
//
// Returns:
//   - ControllerOption: a function that applies the elevation limit option to a controller
func WithElevationLimits(min, max float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.minElevation = min
		cc.maxElevation = max
		cc.elevation = cc.clampElevation(cc.elevation)
	}
}

// WithMouseSensitivity is an option builder that sets the pointer-delta-to-radians scale for Orbit.
//
// Parameters:
//   - sensitivity: radians per pointer unit
//
// Returns:
//   - ControllerOption: a function that applies the sensitivity option to a controller
func WithMouseSensitivity(sensitivity float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed is an option builder that sets the dolly speed.
//
// Parameters:
//   - speed: world units per dolly delta
//
// Returns:
//   - ControllerOption: a function that applies the zoom speed option to a controller
func WithZoomSpeed(speed float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed is an option builder that sets the pan speed.
//
// Parameters:
//   - speed: world units per pan delta
//
// Returns:
//   - ControllerOption: a function that applies the pan speed option to a controller
func WithPanSpeed(speed float32) ControllerOption {
	return func(cc *controllerImpl) {
		cc.panSpeed = speed
	}
}
