package controller

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/ibl"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

// ControllerBuilderOption is a functional option used to configure a controller during construction.
type ControllerBuilderOption func(*controller)

// WithLogger sets the logger the controller reports to.
//
// Parameters:
//   - logger: the logger, prefixed with [Controller]
//
// Returns:
//   - ControllerBuilderOption: a function that sets the controller logger
func WithLogger(logger logging.Logger) ControllerBuilderOption {
	return func(c *controller) {
		if logger != nil {
			c.logger = logger.With("Controller")
		}
	}
}

// WithPool runs the per-object group resource work on the given pool. The controller
// does not stop a pool it was given. Without this option it creates and owns a pool
// sized to the CPU count.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - ControllerBuilderOption: a function that sets the worker pool
func WithPool(pool worker.DynamicWorkerPool) ControllerBuilderOption {
	return func(c *controller) {
		c.pool = pool
	}
}

// WithComposer shares a shader composer, and with it the composed program cache.
//
// Parameters:
//   - composer: the composer
//
// Returns:
//   - ControllerBuilderOption: a function that sets the composer
func WithComposer(composer *shader.Composer) ControllerBuilderOption {
	return func(c *controller) {
		c.composer = composer
	}
}

// WithShaderValidation compiles every composed program with naga before it reaches the
// device, so a broken chunk combination fails InitResources with shader.ErrInvalidProgram.
// It has no effect when WithComposer supplies the composer.
//
// Parameters:
//   - enabled: whether to validate composed programs
//
// Returns:
//   - ControllerBuilderOption: a function that sets the validation flag
func WithShaderValidation(enabled bool) ControllerBuilderOption {
	return func(c *controller) {
		c.validateShaders = enabled
	}
}

// WithMipCount caps the environment map mip chain, mip 0 included.
func WithMipCount(count uint32) ControllerBuilderOption {
	return func(c *controller) {
		c.mipCount = max(min(count, ibl.EnvMapMipLevelCount), 1)
	}
}
