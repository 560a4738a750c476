package ibl

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
)

// EngineOption is a functional option used to configure an Engine during construction.
type EngineOption func(*Engine)

// WithLogger sets the logger the engine reports to.
//
// Parameters:
//   - logger: the logger, prefixed with [IBL]
//
// Returns:
//   - EngineOption: a function that sets the engine logger
func WithLogger(logger logging.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.With("IBL")
		}
	}
}

// WithMipCount caps the specular mip chain. Values above EnvMapMipLevelCount are clamped
// to it, and the chain never exceeds the environment map's own mip count.
//
// Parameters:
//   - count: the maximum number of mips, mip 0 included
//
// Returns:
//   - EngineOption: a function that sets the mip cap
func WithMipCount(count uint32) EngineOption {
	return func(e *Engine) {
		e.maxMipCount = max(min(count, EnvMapMipLevelCount), 1)
	}
}

// ReferenceOption is a functional option used to configure a Reference during construction.
type ReferenceOption func(*Reference)

// WithPool runs the per-face convolutions on the given worker pool.
func WithPool(pool worker.DynamicWorkerPool) ReferenceOption {
	return func(r *Reference) {
		r.pool = pool
	}
}

// WithSampleCount overrides the number of samples per texel.
func WithSampleCount(n uint32) ReferenceOption {
	return func(r *Reference) {
		if n > 0 {
			r.sampleCount = n
		}
	}
}
